package arm

import (
	"fmt"
	"strings"
)

// ASCII directives understood by the arm controller.
const (
	PowerOnDirective  = "power on"
	PowerOffDirective = "power off"
	RunModeDirective  = "set robotmode run"

	// StopDirective decelerates all joints at a gentle fixed rate. Sent on
	// brake commands and unconditionally during shutdown.
	StopDirective = "stopj([0.1,0.1,0.1,0.1,0.1,0.1])"
)

// Default motion profile for movej directives.
const (
	DefaultAcceleration = 0.5 // rad/s^2
	DefaultVelocity     = 0.1 // rad/s
)

// MoveDirective formats a movej directive for the given joint pose in
// radians with the given motion profile.
func MoveDirective(joints [JointCount]float64, acc, vel float64) string {
	parts := make([]string, JointCount)
	for i, j := range joints {
		parts[i] = formatFloat(j)
	}
	return fmt.Sprintf("movej([%s],a=%s,v=%s)",
		strings.Join(parts, ","), formatFloat(acc), formatFloat(vel))
}
