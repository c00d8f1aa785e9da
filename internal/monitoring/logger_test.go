package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("arm %s", "fault")
	if captured != "arm fault" {
		t.Errorf("captured = %q, want %q", captured, "arm fault")
	}

	// nil installs a no-op logger rather than panicking
	SetLogger(nil)
	Logf("dropped")
}

func TestDebugfRespectsVerbose(t *testing.T) {
	defer SetLogger(nil)
	defer func() { Verbose = false }()

	var calls int
	SetLogger(func(format string, v ...interface{}) { calls++ })

	Verbose = false
	Debugf("hidden")
	if calls != 0 {
		t.Fatalf("Debugf logged %d times with Verbose off", calls)
	}

	Verbose = true
	Debugf("shown")
	if calls != 1 {
		t.Fatalf("Debugf logged %d times with Verbose on, want 1", calls)
	}
}
