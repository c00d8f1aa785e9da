package arm

import (
	"fmt"

	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/fsutil"
	"github.com/banshee-data/armlink/internal/security"
	"github.com/banshee-data/armlink/internal/units"
)

// HomeMonitor keeps the home marker file in sync with the arm's position.
// The marker's presence is the only persisted state the daemon owns: other
// processes test for the file instead of speaking the status protocol.
//
// Evaluation only runs while the controller reports running mode. In any
// other mode the joint angles are not trustworthy (booting, backdrive,
// powered off), so the marker is left as it was rather than flapping.
type HomeMonitor struct {
	fs     fsutil.FileSystem
	cfg    *config.ArmConfig
	marker string

	pose   [JointCount]float64
	loaded bool
}

// NewHomeMonitor validates the marker path against the work directory and
// returns a monitor using it. The pose itself is loaded lazily on first use.
func NewHomeMonitor(cfg *config.ArmConfig, fs fsutil.FileSystem) (*HomeMonitor, error) {
	marker := cfg.MarkerPath()
	if err := security.ValidatePathWithinDirectory(marker, cfg.WorkDirectory); err != nil {
		return nil, fmt.Errorf("home marker path: %w", err)
	}
	return &HomeMonitor{fs: fs, cfg: cfg, marker: marker}, nil
}

// MarkerPath returns the marker file path.
func (m *HomeMonitor) MarkerPath() string { return m.marker }

// Pose returns the home pose in radians, loading it from the config on
// first call.
func (m *HomeMonitor) Pose() [JointCount]float64 {
	if !m.loaded {
		m.pose = m.cfg.HomePose()
		m.loaded = true
	}
	return m.pose
}

// SetPose replaces the home pose for the rest of this process's lifetime,
// recording the arm's current position as home. The config file is not
// rewritten.
func (m *HomeMonitor) SetPose(pose [JointCount]float64) {
	m.pose = pose
	m.loaded = true
}

// Evaluate updates the marker file from the given status. While the arm is
// running: all six joints within tolerance of home creates the marker, any
// joint outside removes it. While not running the call is a no-op.
func (m *HomeMonitor) Evaluate(st *Status) error {
	if !st.Running() {
		return nil
	}

	home := m.Pose()
	tol := m.cfg.HomeTolerance()
	atHome := true
	for i, angle := range st.Joints {
		if !units.WithinTolerance(angle, home[i], tol) {
			atHome = false
			break
		}
	}

	if atHome {
		if err := m.fs.Create(m.marker); err != nil {
			return fmt.Errorf("creating home marker %s: %w", m.marker, err)
		}
		return nil
	}
	if err := m.fs.Remove(m.marker); err != nil {
		return fmt.Errorf("removing home marker %s: %w", m.marker, err)
	}
	return nil
}
