package armio

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 115200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v", opts)
	}
}

func TestPortOptionsNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"bad data bits", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "M"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Error("Normalize should have failed")
			}
		})
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want even", mode.Parity)
	}
}

func TestOpenRejectsMalformedSpec(t *testing.T) {
	if _, err := Open("no-scheme-or-port", PortOptions{}); err == nil {
		t.Error("Open should reject a spec with no scheme or port")
	}
}
