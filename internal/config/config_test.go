package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "armlink.json")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"home_position_deg": [0, -90, 0, -90, 0, 0],
		"work_directory": "/tmp",
		"sleep_seconds": 0.1,
		"force_limit_newtons": 25
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkDirectory != "/tmp" {
		t.Errorf("WorkDirectory = %q, want /tmp", cfg.WorkDirectory)
	}
	if got := cfg.SleepInterval(); got != 100*time.Millisecond {
		t.Errorf("SleepInterval() = %v, want 100ms", got)
	}
	if got := cfg.ForceLimit(); got != 25 {
		t.Errorf("ForceLimit() = %v, want 25", got)
	}

	// Omitted tunables keep their defaults.
	if got := cfg.Acceleration(); got != DefaultAccelerationRadSS {
		t.Errorf("Acceleration() = %v, want default %v", got, DefaultAccelerationRadSS)
	}
	if got := cfg.Velocity(); got != DefaultVelocityRadS {
		t.Errorf("Velocity() = %v, want default %v", got, DefaultVelocityRadS)
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing work directory", `{"home_position_deg": [0,0,0,0,0,0]}`},
		{"malformed json", `{"work_directory": "/tmp",`},
		{"home angle out of range", `{"work_directory": "/tmp", "home_position_deg": [0,0,0,0,0,400]}`},
		{"negative sleep", `{"work_directory": "/tmp", "sleep_seconds": -1}`},
		{"zero force limit", `{"work_directory": "/tmp", "force_limit_newtons": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			if _, err := Load(path); err == nil {
				t.Error("Load should have failed")
			}
		})
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armlink.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject non-.json files")
	}
}

func TestHomePoseConvertsToRadians(t *testing.T) {
	cfg := &ArmConfig{
		HomePositionDeg: [JointCount]float64{0, -90, 0, -90, 0, 180},
		WorkDirectory:   "/tmp",
	}

	pose := cfg.HomePose()
	want := [JointCount]float64{0, -math.Pi / 2, 0, -math.Pi / 2, 0, math.Pi}
	for i := range pose {
		if math.Abs(pose[i]-want[i]) > 1e-12 {
			t.Errorf("HomePose()[%d] = %v, want %v", i, pose[i], want[i])
		}
	}
}

func TestMarkerPath(t *testing.T) {
	cfg := &ArmConfig{WorkDirectory: "/var/lib/armlink"}
	if got := cfg.MarkerPath(); got != filepath.Join("/var/lib/armlink", MarkerFileName) {
		t.Errorf("MarkerPath() = %q", got)
	}
}

func TestCanonicalIsValid(t *testing.T) {
	if err := Canonical().Validate(); err != nil {
		t.Errorf("canonical config should validate: %v", err)
	}
}

func TestSleepIntervalDefaultsTo200ms(t *testing.T) {
	cfg := &ArmConfig{WorkDirectory: "/tmp"}
	if got := cfg.SleepInterval(); got != 200*time.Millisecond {
		t.Errorf("SleepInterval() = %v, want 200ms", got)
	}
}

func TestSleepIntervalZeroDisablesSleep(t *testing.T) {
	zero := 0.0
	cfg := &ArmConfig{WorkDirectory: "/tmp", SleepSeconds: &zero}
	if got := cfg.SleepInterval(); got != 0 {
		t.Errorf("SleepInterval() = %v, want 0", got)
	}
}
