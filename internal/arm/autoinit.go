package arm

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/units"
)

// InitState is the auto-init machine's externally visible state.
type InitState string

const (
	InitIdle         InitState = "idle"
	InitInitialising InitState = "initialising"
)

// NudgeDeg is the per-step joint movement during auto-init. Small enough
// that a force abort leaves the arm close to where the limit was first
// seen.
const NudgeDeg = 2.0

// maxStepsPerJoint bounds a joint that never reports initialised, roughly
// one full turn of nudges.
const maxStepsPerJoint = 200

// EventRecorder receives lifecycle notifications from the auto-init machine
// and the control loop. The history store implements it; tests substitute
// their own.
type EventRecorder interface {
	RecordEvent(kind, detail string)
}

// Initialiser drives the arm toward its reference pose one joint at a time,
// outermost joint first. Each step nudges the joint toward its home angle
// and waits for fresh status; the joint is done when its mode reports
// running or its angle reaches home within tolerance. Force above the limit
// aborts the whole sequence.
//
// Run is synchronous: the control loop does not tick while initialisation
// is in progress, which is the point — no other command may move the arm
// mid-sequence.
type Initialiser struct {
	writer DirectiveWriter
	reader *StatusReader
	cfg    *config.ArmConfig
	home   *HomeMonitor
	events EventRecorder

	state InitState
}

// DirectiveWriter is the outgoing half of the arm command channel.
type DirectiveWriter interface {
	WriteLine(directive string) error
}

// NewInitialiser wires the auto-init machine.
func NewInitialiser(w DirectiveWriter, r *StatusReader, cfg *config.ArmConfig, home *HomeMonitor, events EventRecorder) *Initialiser {
	return &Initialiser{writer: w, reader: r, cfg: cfg, home: home, events: events, state: InitIdle}
}

// State returns the machine state, idle except while Run is executing.
func (a *Initialiser) State() InitState { return a.state }

// HomeFilePath returns the marker path of the attached home monitor.
func (a *Initialiser) HomeFilePath() string { return a.home.MarkerPath() }

func (a *Initialiser) record(kind, detail string) {
	if a.events != nil {
		a.events.RecordEvent(kind, detail)
	}
}

// Run executes the full initialisation sequence with the given force limit
// in newtons. The returned Result is the acknowledgement outcome (success,
// force abort, or cancelled); the error is reserved for fatal conditions
// (feedback stream dead, misaligned frame, command channel write failure)
// which must unwind to the control loop's shutdown path.
//
// Terminal states reset the machine to idle either way.
func (a *Initialiser) Run(ctx context.Context, forceLimit float64) (Result, error) {
	a.state = InitInitialising
	defer func() { a.state = InitIdle }()

	a.record("auto_init_start", fmt.Sprintf("force limit %.1f N", forceLimit))

	home := a.home.Pose()
	for j := JointCount - 1; j >= 0; j-- {
		res, err := a.initJoint(ctx, j, home[j], forceLimit)
		if err != nil {
			return res, err
		}
		if res.Code != CodeOK {
			a.record("auto_init_end", res.Message)
			return res, nil
		}
		a.record("auto_init_joint", fmt.Sprintf("joint %d initialised", j))
	}

	a.record("auto_init_end", "completed")
	return OK, nil
}

// initJoint nudges one joint toward its home angle until it reports
// initialised or reaches the angle within the home tolerance.
func (a *Initialiser) initJoint(ctx context.Context, joint int, target, forceLimit float64) (Result, error) {
	tol := a.cfg.HomeTolerance()
	step := units.DegToRad(NudgeDeg)

	for n := 0; n < maxStepsPerJoint; n++ {
		if ctx.Err() != nil {
			// Stop issuing motion immediately; the arm stays at its last
			// commanded low-velocity pose.
			return Result{Code: CodeCancelled, Message: "auto init cancelled"}, nil
		}

		if err := a.reader.Poll(); err != nil {
			return Result{}, fmt.Errorf("auto init status poll: %w", err)
		}
		st := a.reader.Status()

		if st.JointModes[joint] == JointModeRunning || units.WithinTolerance(st.Joints[joint], target, tol) {
			return OK, nil
		}

		if math.Abs(st.Forces[joint]) > forceLimit {
			if werr := a.writer.WriteLine(StopDirective); werr != nil {
				return Result{}, fmt.Errorf("stopping after force abort: %w", werr)
			}
			return Result{
				Code:    CodeForceAborted,
				Message: fmt.Sprintf("joint %d force %.1f N exceeds limit %.1f N", joint, st.Forces[joint], forceLimit),
			}, nil
		}

		pose := st.Joints
		if pose[joint] < target {
			pose[joint] += step
		} else {
			pose[joint] -= step
		}
		directive := MoveDirective(pose, a.cfg.Acceleration(), a.cfg.Velocity())
		monitoring.Debugf("auto init joint %d: %s", joint, debugDegrees(pose))
		if err := a.writer.WriteLine(directive); err != nil {
			return Result{}, fmt.Errorf("auto init movej: %w", err)
		}
	}

	return Result{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("joint %d did not initialise after %d steps", joint, maxStepsPerJoint),
	}, nil
}

// debugDegrees renders a pose in degrees for the verbose log.
func debugDegrees(pose [JointCount]float64) string {
	deg := make([]interface{}, JointCount)
	for i, r := range pose {
		deg[i] = units.RadToDeg(r)
	}
	return fmt.Sprintf("deg[%.2f %.2f %.2f %.2f %.2f %.2f]", deg...)
}
