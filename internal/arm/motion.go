package arm

import (
	"github.com/banshee-data/armlink/internal/units"
)

// Engine decision codes, broadcast as the leading status byte of each tick's
// record. Non-negative codes mean the tick is healthy; negative codes flag
// why a pending request was not acted on.
const (
	DecisionIdle       int8 = 0
	DecisionMove       int8 = 1
	DecisionNotRunning int8 = -1
	DecisionJointLimit int8 = -2
)

// Engine decides, once per tick, whether and where the arm should move.
// It is deliberately a single method: the daemon treats motion planning as
// an opaque collaborator and only routes its output to the controller.
type Engine interface {
	// Step inspects the pending inputs against the current status and
	// returns a decision code plus, for DecisionMove, the joint target in
	// radians. Step owns clearing the inputs it consumes.
	Step(in *MotionInputs, st *Status) (int8, [JointCount]float64)
}

// simpleEngine is the in-tree engine: direct pose moves with joint range
// checking, and a fixed small-angle mapping for camera pointing. It exists
// so the daemon runs end to end; it performs no path planning.
type simpleEngine struct {
	limits [JointCount][2]float64
}

// DefaultJointLimits is the symmetric joint range applied when no limits
// are configured, one full turn either way.
var DefaultJointLimits = [JointCount][2]float64{
	{-units.DegToRad(360), units.DegToRad(360)},
	{-units.DegToRad(360), units.DegToRad(360)},
	{-units.DegToRad(360), units.DegToRad(360)},
	{-units.DegToRad(360), units.DegToRad(360)},
	{-units.DegToRad(360), units.DegToRad(360)},
	{-units.DegToRad(360), units.DegToRad(360)},
}

// NewSimpleEngine builds the default engine with the given joint limits in
// radians.
func NewSimpleEngine(limits [JointCount][2]float64) Engine {
	return &simpleEngine{limits: limits}
}

func (e *simpleEngine) Step(in *MotionInputs, st *Status) (int8, [JointCount]float64) {
	var none [JointCount]float64
	if !in.Pending() {
		return DecisionIdle, none
	}
	if !st.Running() {
		// Leave the request pending; it may become actionable once the
		// controller reaches running mode.
		return DecisionNotRunning, none
	}

	target, ok := in.Target()
	if !ok {
		if pan, tilt, height, camOK := in.Camera(); camOK {
			target = e.cameraPose(st, pan, tilt, height)
		} else {
			return DecisionIdle, none
		}
	}

	for i, j := range target {
		if j < e.limits[i][0] || j > e.limits[i][1] {
			in.Clear()
			return DecisionJointLimit, none
		}
	}

	in.Clear()
	return DecisionMove, target
}

// cameraPose maps a pan/tilt/height request onto joint angles: pan drives
// the base, height offsets the shoulder from its current angle, tilt drives
// the wrist pitch. Deliberately crude; the daemon does no path planning.
func (e *simpleEngine) cameraPose(st *Status, panDeg, tiltDeg, heightM float64) [JointCount]float64 {
	pose := st.Joints
	pose[0] = units.DegToRad(panDeg)
	pose[1] = st.Joints[1] - heightRadPerMetre*heightM
	pose[3] = units.DegToRad(tiltDeg)
	return pose
}

// heightRadPerMetre approximates shoulder rotation per metre of camera
// height for an arm with roughly one metre of reach.
const heightRadPerMetre = 1.0
