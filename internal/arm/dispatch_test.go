package arm

import (
	"context"
	"strings"
	"testing"

	"github.com/banshee-data/armlink/internal/armio"
	"github.com/banshee-data/armlink/internal/fsutil"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/timeutil"
)

type dispatchFixture struct {
	d        *Dispatcher
	inputs   *MotionInputs
	reader   *StatusReader
	home     *HomeMonitor
	cmdPort  *armio.TestPort
	feedback *armio.TestPort
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	cfg := testHomeConfig()
	fs := fsutil.NewMemoryFileSystem()
	fs.MkdirAll("/work")
	home, err := NewHomeMonitor(cfg, fs)
	if err != nil {
		t.Fatalf("NewHomeMonitor: %v", err)
	}

	cmdPort := armio.NewTestPort()
	feedback := armio.NewTestPort()
	t.Cleanup(func() {
		cmdPort.Close()
		feedback.Close()
	})

	reader := NewStatusReader(feedback, timeutil.RealClock{})
	writer := armio.NewChannel(cmdPort)
	inputs := &MotionInputs{}
	init := NewInitialiser(writer, reader, cfg, home, nil)
	d := NewDispatcher(writer, cfg, inputs, reader, init, home)
	return &dispatchFixture{d: d, inputs: inputs, reader: reader, home: home, cmdPort: cmdPort, feedback: feedback}
}

// prime feeds one status frame and polls so the dispatcher sees the arm in
// the given state.
func (f *dispatchFixture) prime(t *testing.T, st Status) {
	t.Helper()
	f.feedback.Feed(EncodeStatus(&st))
	if err := f.reader.Poll(); err != nil {
		t.Fatalf("priming poll: %v", err)
	}
}

func TestDispatchPowerWritesDirective(t *testing.T) {
	f := newDispatchFixture(t)

	ack, err := f.d.Dispatch(context.Background(), "ops,1,power,on;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ack != "ops,1,power,on,0;" {
		t.Errorf("ack = %q", ack)
	}
	if got := f.cmdPort.WrittenLines(); len(got) != 1 || got[0] != PowerOnDirective {
		t.Errorf("wrote %v, want power on directive", got)
	}
}

func TestDispatchBrakesStopsAndClearsInputs(t *testing.T) {
	f := newDispatchFixture(t)
	f.inputs.SetCamera(1, 2, 3)

	ack, err := f.d.Dispatch(context.Background(), "ops,2,stop;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ack != "ops,2,brakes,0;" {
		t.Errorf("ack = %q", ack)
	}
	if f.inputs.Pending() {
		t.Error("brakes must drop pending motion")
	}
	if got := f.cmdPort.Written(); !strings.Contains(got, "stopj") {
		t.Errorf("wrote %q, want stopj", got)
	}
}

func TestDispatchMoveCamRequiresRunning(t *testing.T) {
	f := newDispatchFixture(t)

	// No status yet.
	ack, err := f.d.Dispatch(context.Background(), "ops,3,move_cam,10,20,0.5;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(ack, ",3,") || !strings.Contains(ack, "no status") {
		t.Errorf("ack = %q, want invalid-state refusal", ack)
	}

	st := sampleStatus()
	st.RobotMode = RobotModeIdle
	f.prime(t, st)
	ack, err = f.d.Dispatch(context.Background(), "ops,4,move_cam,10,20,0.5;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(ack, "not running") {
		t.Errorf("ack = %q, want not-running refusal", ack)
	}
	if f.inputs.Pending() {
		t.Error("refused command must not queue motion")
	}
}

func TestDispatchMoveCamQueuesCameraRequest(t *testing.T) {
	f := newDispatchFixture(t)
	f.prime(t, sampleStatus())

	ack, err := f.d.Dispatch(context.Background(), "ops,5,move_cam,10,20,0.5;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ack != "ops,5,move_cam,10,20,0.5,0;" {
		t.Errorf("ack = %q", ack)
	}
	pan, tilt, height, ok := f.inputs.Camera()
	if !ok || pan != 10 || tilt != 20 || height != 0.5 {
		t.Errorf("camera request = %v,%v,%v,%v", pan, tilt, height, ok)
	}
}

func TestDispatchSetPosTargetsNamedPose(t *testing.T) {
	f := newDispatchFixture(t)
	f.prime(t, sampleStatus())

	if _, err := f.d.Dispatch(context.Background(), "ops,6,set_pos,home;"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	target, ok := f.inputs.Target()
	if !ok || target != f.home.Pose() {
		t.Errorf("target = %v,%v, want home pose", target, ok)
	}

	if _, err := f.d.Dispatch(context.Background(), "ops,7,set_pos,giraffe;"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	target, ok = f.inputs.Target()
	if !ok || target != degPose(GiraffePoseDeg) {
		t.Errorf("target = %v,%v, want giraffe pose", target, ok)
	}
}

func TestDispatchSetHomeCapturesCurrentPose(t *testing.T) {
	f := newDispatchFixture(t)
	st := sampleStatus()
	st.Joints = [JointCount]float64{0.4, -1.2, 0.9, -0.3, 0.1, 0}
	f.prime(t, st)

	ack, err := f.d.Dispatch(context.Background(), "ops,8,set_home;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ack != "ops,8,set_home,0;" {
		t.Errorf("ack = %q", ack)
	}
	if f.home.Pose() != st.Joints {
		t.Errorf("home pose = %v, want captured %v", f.home.Pose(), st.Joints)
	}
}

func TestDispatchInitjWritesImmediateNudge(t *testing.T) {
	f := newDispatchFixture(t)
	st := sampleStatus()
	st.RobotMode = RobotModeIdle // initj is allowed outside running mode
	f.prime(t, st)

	ack, err := f.d.Dispatch(context.Background(), "ops,9,initj,2,4;")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ack != "ops,9,initj,2,4,0;" {
		t.Errorf("ack = %q", ack)
	}
	if got := f.cmdPort.Written(); !strings.Contains(got, "movej") {
		t.Errorf("wrote %q, want a movej nudge", got)
	}
}

func TestDispatchProtocolErrorsBecomeAcks(t *testing.T) {
	f := newDispatchFixture(t)

	tests := []struct {
		line string
		want string
	}{
		{"ops,1,dance;", "unknown command"},
		{"ops,1,set_pos;", "format error"},
		{"garbage", "format error"},
	}
	for _, tt := range tests {
		ack, err := f.d.Dispatch(context.Background(), tt.line)
		if err != nil {
			t.Fatalf("Dispatch(%q): %v", tt.line, err)
		}
		if !strings.Contains(ack, tt.want) {
			t.Errorf("Dispatch(%q) = %q, want %q mentioned", tt.line, ack, tt.want)
		}
		if !strings.HasSuffix(ack, ";") {
			t.Errorf("ack %q must end with a semicolon", ack)
		}
	}
}

func TestDispatchWriteFailureIsFatal(t *testing.T) {
	f := newDispatchFixture(t)
	f.cmdPort.SetWriteError(armio.ErrWriteFailed)

	if _, err := f.d.Dispatch(context.Background(), "ops,1,power,off;"); err == nil {
		t.Fatal("a failed arm channel write must surface as a fatal error")
	}
}
