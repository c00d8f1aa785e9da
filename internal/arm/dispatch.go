package arm

import (
	"context"
	"fmt"

	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/units"
)

// GiraffePoseDeg is the fully extended "giraffe" pose in degrees: arm
// stretched upright for maximum camera height.
var GiraffePoseDeg = [JointCount]float64{0, -90, 0, 0, 90, 0}

// Dispatcher routes parsed commands to their handlers and renders the
// acknowledgement line for each. Protocol failures and handler refusals are
// acknowledgement codes; only connectivity faults come back as errors.
type Dispatcher struct {
	writer DirectiveWriter
	cfg    *config.ArmConfig
	inputs *MotionInputs
	reader *StatusReader
	init   *Initialiser
	home   *HomeMonitor
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(w DirectiveWriter, cfg *config.ArmConfig, inputs *MotionInputs, r *StatusReader, init *Initialiser, home *HomeMonitor) *Dispatcher {
	return &Dispatcher{writer: w, cfg: cfg, inputs: inputs, reader: r, init: init, home: home}
}

// Dispatch parses and executes one command line, returning the
// acknowledgement to write back to the command source. The error return is
// fatal: a failed write to the arm channel or a dead feedback stream.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) (string, error) {
	cmd, perr := ParseCommand(line)
	if perr != nil {
		monitoring.Logf("rejected command %q: %s", line, perr.Message)
		return perr.Ack(), nil
	}

	res, err := d.handle(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.Code != CodeOK {
		monitoring.Logf("command %s,%d,%s refused: %s", cmd.Header().Origin, cmd.Header().ID, cmd.Header().Name, res.Message)
	}
	return fmt.Sprintf("%s,%s;", cmd.Serialise(), res.String()), nil
}

func (d *Dispatcher) handle(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case Power:
		directive := PowerOffDirective
		if c.On {
			directive = PowerOnDirective
		}
		if err := d.writer.WriteLine(directive); err != nil {
			return Result{}, fmt.Errorf("power directive: %w", err)
		}
		return OK, nil

	case Brakes:
		// Drop any pending motion so the engine cannot immediately undo
		// the stop on the next tick.
		d.inputs.Clear()
		if err := d.writer.WriteLine(StopDirective); err != nil {
			return Result{}, fmt.Errorf("stop directive: %w", err)
		}
		return OK, nil

	case MoveCam:
		if res := d.requireRunning(); res.Code != CodeOK {
			return res, nil
		}
		d.inputs.SetCamera(c.Pan, c.Tilt, c.HeightMetres)
		return OK, nil

	case SetPosition:
		if res := d.requireRunning(); res.Code != CodeOK {
			return res, nil
		}
		switch c.Pose {
		case PoseHome:
			d.inputs.SetTarget(d.home.Pose())
		case PoseGiraffe:
			d.inputs.SetTarget(degPose(GiraffePoseDeg))
		}
		return OK, nil

	case SetHome:
		if res := d.requireRunning(); res.Code != CodeOK {
			return res, nil
		}
		d.home.SetPose(d.reader.Status().Joints)
		return OK, nil

	case AutoInit:
		return d.runAutoInit(ctx, d.cfg.ForceLimit())

	case AutoInitForce:
		return d.runAutoInit(ctx, c.ForceLimit)

	case JointMove:
		return d.jointMove(c)
	}

	// Unreachable while ParseCommand and this switch cover the same set.
	return Result{Code: CodeUnknownCommand, Message: fmt.Sprintf("unhandled command %q", cmd.Header().Name)}, nil
}

func (d *Dispatcher) runAutoInit(ctx context.Context, forceLimit float64) (Result, error) {
	if !d.reader.Fresh() {
		return Result{Code: CodeInvalidState, Message: "no status received from arm yet"}, nil
	}
	if d.reader.Status().Faulted() {
		return Result{Code: CodeInvalidState, Message: "arm is faulted"}, nil
	}
	return d.init.Run(ctx, forceLimit)
}

// jointMove nudges a single joint immediately, bypassing the motion engine.
// Used to free joints by hand during initialisation, so it is allowed in
// any non-faulted powered state.
func (d *Dispatcher) jointMove(c JointMove) (Result, error) {
	if !d.reader.Fresh() {
		return Result{Code: CodeInvalidState, Message: "no status received from arm yet"}, nil
	}
	st := d.reader.Status()
	if st.Faulted() {
		return Result{Code: CodeInvalidState, Message: "arm is faulted"}, nil
	}

	pose := st.Joints
	pose[c.Joint] += units.DegToRad(c.DeltaDeg)
	directive := MoveDirective(pose, d.cfg.Acceleration(), d.cfg.Velocity())
	monitoring.Debugf("initj joint %d: %s", c.Joint, debugDegrees(pose))
	if err := d.writer.WriteLine(directive); err != nil {
		return Result{}, fmt.Errorf("initj movej: %w", err)
	}
	return OK, nil
}

func (d *Dispatcher) requireRunning() Result {
	if !d.reader.Fresh() {
		return Result{Code: CodeInvalidState, Message: "no status received from arm yet"}
	}
	st := d.reader.Status()
	if !st.Running() {
		return Result{Code: CodeInvalidState, Message: fmt.Sprintf("arm is not running (mode %s)", st.ModeString())}
	}
	return OK
}

func degPose(deg [JointCount]float64) [JointCount]float64 {
	var pose [JointCount]float64
	for i, v := range deg {
		pose[i] = units.DegToRad(v)
	}
	return pose
}
