package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/armlink/internal/units"
)

// DefaultConfigPath is the path to the canonical arm defaults file.
// This is the single source of truth for all default arm parameters.
const DefaultConfigPath = "config/armlink.defaults.json"

// JointCount is the number of joints on the arm. Every joint-indexed vector
// in the daemon has exactly this length.
const JointCount = 6

// MarkerFileName is the name of the home marker file created under the work
// directory. Its presence is the only content that matters.
const MarkerFileName = "arm_at_home"

// ArmConfig is the root configuration loaded once at startup. Optional
// tunables are pointers so that fields omitted from the JSON file keep their
// defaults; partial configs are safe.
type ArmConfig struct {
	// HomePositionDeg is the reference pose in degrees, one angle per joint.
	HomePositionDeg [JointCount]float64 `json:"home_position_deg"`

	// WorkDirectory is where the home marker file lives. Must exist.
	WorkDirectory string `json:"work_directory"`

	// Tunables
	SleepSeconds      *float64 `json:"sleep_seconds,omitempty"`       // loop sleep, 0 disables
	ForceLimitNewtons *float64 `json:"force_limit_newtons,omitempty"` // auto-init abort threshold
	AccelerationRadSS *float64 `json:"acceleration_rad_ss,omitempty"` // movej acceleration
	VelocityRadS      *float64 `json:"velocity_rad_s,omitempty"`      // movej velocity
	HomeToleranceDeg  *float64 `json:"home_tolerance_deg,omitempty"`  // per-joint at-home tolerance
}

// Default tunable values. SleepSeconds matches the original field deployment
// interval of five ticks per second.
const (
	DefaultSleepSeconds      = 0.2
	DefaultForceLimitNewtons = 40.0
	DefaultAccelerationRadSS = 0.5
	DefaultVelocityRadS      = 0.1
	DefaultHomeToleranceDeg  = 2.0
)

// Load reads an ArmConfig from a JSON file. The file is validated to ensure
// it has a .json extension and is under the max file size.
func Load(path string) (*ArmConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ArmConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges on every configured value. It does not check that
// the work directory exists; the daemon does that at startup so that the
// error message can name the flag to fix.
func (c *ArmConfig) Validate() error {
	if c.WorkDirectory == "" {
		return fmt.Errorf("work_directory is required")
	}
	for i, deg := range c.HomePositionDeg {
		if deg < -360 || deg > 360 {
			return fmt.Errorf("home_position_deg[%d] = %v out of range [-360, 360]", i, deg)
		}
	}
	if c.SleepSeconds != nil && *c.SleepSeconds < 0 {
		return fmt.Errorf("sleep_seconds must not be negative, got %v", *c.SleepSeconds)
	}
	if c.ForceLimitNewtons != nil && *c.ForceLimitNewtons <= 0 {
		return fmt.Errorf("force_limit_newtons must be positive, got %v", *c.ForceLimitNewtons)
	}
	if c.AccelerationRadSS != nil && *c.AccelerationRadSS <= 0 {
		return fmt.Errorf("acceleration_rad_ss must be positive, got %v", *c.AccelerationRadSS)
	}
	if c.VelocityRadS != nil && *c.VelocityRadS <= 0 {
		return fmt.Errorf("velocity_rad_s must be positive, got %v", *c.VelocityRadS)
	}
	if c.HomeToleranceDeg != nil && *c.HomeToleranceDeg <= 0 {
		return fmt.Errorf("home_tolerance_deg must be positive, got %v", *c.HomeToleranceDeg)
	}
	return nil
}

// SleepInterval returns the loop sleep as a duration. Zero disables sleeping.
func (c *ArmConfig) SleepInterval() time.Duration {
	s := DefaultSleepSeconds
	if c.SleepSeconds != nil {
		s = *c.SleepSeconds
	}
	return time.Duration(s * float64(time.Second))
}

// ForceLimit returns the auto-init force abort threshold in newtons.
func (c *ArmConfig) ForceLimit() float64 {
	if c.ForceLimitNewtons != nil {
		return *c.ForceLimitNewtons
	}
	return DefaultForceLimitNewtons
}

// Acceleration returns the movej acceleration in rad/s^2.
func (c *ArmConfig) Acceleration() float64 {
	if c.AccelerationRadSS != nil {
		return *c.AccelerationRadSS
	}
	return DefaultAccelerationRadSS
}

// Velocity returns the movej velocity in rad/s.
func (c *ArmConfig) Velocity() float64 {
	if c.VelocityRadS != nil {
		return *c.VelocityRadS
	}
	return DefaultVelocityRadS
}

// HomeTolerance returns the per-joint at-home tolerance in radians.
func (c *ArmConfig) HomeTolerance() float64 {
	deg := DefaultHomeToleranceDeg
	if c.HomeToleranceDeg != nil {
		deg = *c.HomeToleranceDeg
	}
	return units.DegToRad(deg)
}

// HomePose returns the configured home pose in radians.
func (c *ArmConfig) HomePose() [JointCount]float64 {
	var pose [JointCount]float64
	for i, deg := range c.HomePositionDeg {
		pose[i] = units.DegToRad(deg)
	}
	return pose
}

// MarkerPath returns the home marker file path under the work directory.
func (c *ArmConfig) MarkerPath() string {
	return filepath.Join(c.WorkDirectory, MarkerFileName)
}

// WriteCanonical writes the config as indented JSON, used by -output-config
// to document the schema.
func (c *ArmConfig) WriteCanonical(w io.Writer) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Canonical returns a fully populated config with every tunable set to its
// default, used by -output-config when no config file is given.
func Canonical() *ArmConfig {
	return &ArmConfig{
		HomePositionDeg:   [JointCount]float64{0, -90, 0, -90, 0, 0},
		WorkDirectory:     "/var/lib/armlink",
		SleepSeconds:      ptrFloat64(DefaultSleepSeconds),
		ForceLimitNewtons: ptrFloat64(DefaultForceLimitNewtons),
		AccelerationRadSS: ptrFloat64(DefaultAccelerationRadSS),
		VelocityRadS:      ptrFloat64(DefaultVelocityRadS),
		HomeToleranceDeg:  ptrFloat64(DefaultHomeToleranceDeg),
	}
}

func ptrFloat64(v float64) *float64 { return &v }
