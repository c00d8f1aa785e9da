package arm

import (
	"testing"

	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/fsutil"
)

func testHomeConfig() *config.ArmConfig {
	return &config.ArmConfig{
		HomePositionDeg: [config.JointCount]float64{0, -90, 0, -90, 0, 0},
		WorkDirectory:   "/work",
	}
}

func newTestMonitor(t *testing.T) (*HomeMonitor, *fsutil.MemoryFileSystem) {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()
	fs.MkdirAll("/work")
	m, err := NewHomeMonitor(testHomeConfig(), fs)
	if err != nil {
		t.Fatalf("NewHomeMonitor: %v", err)
	}
	return m, fs
}

func TestHomeMonitorCreatesMarkerAtHome(t *testing.T) {
	m, fs := newTestMonitor(t)

	st := sampleStatus()
	st.Joints = m.Pose()
	if err := m.Evaluate(&st); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !fs.Exists(m.MarkerPath()) {
		t.Error("marker should exist when all joints are at home")
	}
}

func TestHomeMonitorToleratesSmallDeviation(t *testing.T) {
	m, fs := newTestMonitor(t)

	st := sampleStatus()
	st.Joints = m.Pose()
	st.Joints[3] += 0.01 // well inside the 2 degree tolerance
	if err := m.Evaluate(&st); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !fs.Exists(m.MarkerPath()) {
		t.Error("marker should exist within tolerance")
	}
}

func TestHomeMonitorRemovesMarkerAwayFromHome(t *testing.T) {
	m, fs := newTestMonitor(t)
	fs.Create(m.MarkerPath())

	st := sampleStatus()
	st.Joints = m.Pose()
	st.Joints[0] += 0.1 // about 5.7 degrees
	if err := m.Evaluate(&st); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if fs.Exists(m.MarkerPath()) {
		t.Error("marker should be removed when a joint is out of tolerance")
	}
}

func TestHomeMonitorNoOpWhileNotRunning(t *testing.T) {
	m, fs := newTestMonitor(t)
	fs.Create(m.MarkerPath())

	st := sampleStatus()
	st.RobotMode = RobotModeBooting
	st.Joints[0] = 2.0 // far from home, but the arm is not running
	if err := m.Evaluate(&st); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !fs.Exists(m.MarkerPath()) {
		t.Error("marker must be preserved while the arm is not running")
	}
}

func TestHomeMonitorSetPose(t *testing.T) {
	m, fs := newTestMonitor(t)

	captured := [JointCount]float64{0.5, -0.5, 0.5, -0.5, 0.5, -0.5}
	m.SetPose(captured)

	st := sampleStatus()
	st.Joints = captured
	if err := m.Evaluate(&st); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !fs.Exists(m.MarkerPath()) {
		t.Error("marker should track the captured pose after SetPose")
	}
}
