package arm

// MotionInputs is the mailbox between the dispatcher and the motion engine.
// Handlers record the most recent motion request here; the engine consumes
// it on the next tick. Later requests replace earlier ones — the arm has a
// single goal at a time, not a trajectory queue.
type MotionInputs struct {
	targetSet bool
	target    [JointCount]float64

	camSet    bool
	panDeg    float64
	tiltDeg   float64
	heightM   float64
}

// SetTarget requests a move to an absolute joint pose in radians.
func (in *MotionInputs) SetTarget(joints [JointCount]float64) {
	in.Clear()
	in.targetSet = true
	in.target = joints
}

// Target returns the requested joint pose, if any.
func (in *MotionInputs) Target() ([JointCount]float64, bool) {
	return in.target, in.targetSet
}

// SetCamera requests a camera pointing move: pan and tilt in degrees,
// height in metres.
func (in *MotionInputs) SetCamera(panDeg, tiltDeg, heightM float64) {
	in.Clear()
	in.camSet = true
	in.panDeg = panDeg
	in.tiltDeg = tiltDeg
	in.heightM = heightM
}

// Camera returns the requested camera pointing, if any.
func (in *MotionInputs) Camera() (panDeg, tiltDeg, heightM float64, ok bool) {
	return in.panDeg, in.tiltDeg, in.heightM, in.camSet
}

// Pending reports whether any motion request is waiting for the engine.
func (in *MotionInputs) Pending() bool {
	return in.targetSet || in.camSet
}

// Clear drops any pending request. Called by the engine once a request has
// been acted on, and by the brake handler to cancel motion outright.
func (in *MotionInputs) Clear() {
	*in = MotionInputs{}
}
