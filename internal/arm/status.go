// Package arm implements the supervisory control core for a six-joint
// robotic arm: the command protocol and dispatcher, the status feedback
// model, the auto-initialisation state machine, the home position monitor,
// and the per-tick control loop that ties them together.
package arm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// JointCount is the number of joints on the arm.
const JointCount = 6

/*
Status frame layout (big-endian, 136 bytes total):

├── Length      uint32      declared frame size, must equal 136
├── TimeMS      uint64      controller uptime in milliseconds
├── Joints      [6]float64  joint angles in radians
├── Forces      [6]float64  per-joint force feedback in newtons
├── RobotMode   int32       controller mode (see RobotMode* constants)
└── JointModes  [6]int32    per-joint mode (see JointMode* constants)

The declared Length doubles as the alignment check: a frame whose Length
field disagrees with StatusFrameSize means reader and controller have lost
byte alignment, and nothing after that point can be trusted.
*/
const StatusFrameSize = 4 + 8 + JointCount*8 + JointCount*8 + 4 + JointCount*4

// Controller modes reported in the RobotMode field.
const (
	RobotModeDisconnected  int32 = 0
	RobotModeConfirmSafety int32 = 1
	RobotModeBooting       int32 = 2
	RobotModePowerOff      int32 = 3
	RobotModePowerOn       int32 = 4
	RobotModeIdle          int32 = 5
	RobotModeBackdrive     int32 = 6
	RobotModeRunning       int32 = 7
)

// Per-joint modes reported in the JointModes field.
const (
	JointModeResetting        int32 = 235
	JointModePartDCalibration int32 = 237
	JointModeBackdrive        int32 = 238
	JointModePowerOff         int32 = 239
	JointModeNotResponding    int32 = 245
	JointModeIdle             int32 = 252
	JointModeRunning          int32 = 253
)

// ErrFrameAlignment indicates a status frame whose declared length disagrees
// with the expected fixed size. The feedback stream is presumed corrupt.
var ErrFrameAlignment = errors.New("status data alignment check failed")

// Status is the arm's last-known status snapshot. It is owned by the status
// reader, replaced wholesale on each successful read, and read-shared by
// every other component during a tick.
type Status struct {
	Length     uint32
	TimeMS     uint64
	Joints     [JointCount]float64
	Forces     [JointCount]float64
	RobotMode  int32
	JointModes [JointCount]int32
}

// Running reports whether the controller is in its normal operating mode.
func (s *Status) Running() bool {
	return s.RobotMode == RobotModeRunning
}

// Faulted reports whether the controller or any joint is in a state that
// should block motion commands.
func (s *Status) Faulted() bool {
	if s.RobotMode == RobotModeConfirmSafety {
		return true
	}
	for _, m := range s.JointModes {
		if m == JointModeNotResponding {
			return true
		}
	}
	return false
}

// Initialised reports whether every joint has completed calibration and is
// in its running mode.
func (s *Status) Initialised() bool {
	for _, m := range s.JointModes {
		if m != JointModeRunning {
			return false
		}
	}
	return true
}

// ModeString returns a human-readable controller mode for diagnostics.
func (s *Status) ModeString() string {
	switch s.RobotMode {
	case RobotModeDisconnected:
		return "disconnected"
	case RobotModeConfirmSafety:
		return "confirm-safety"
	case RobotModeBooting:
		return "booting"
	case RobotModePowerOff:
		return "power-off"
	case RobotModePowerOn:
		return "power-on"
	case RobotModeIdle:
		return "idle"
	case RobotModeBackdrive:
		return "backdrive"
	case RobotModeRunning:
		return "running"
	default:
		return fmt.Sprintf("unknown(%d)", s.RobotMode)
	}
}

// DecodeStatus decodes one fixed-size feedback frame. The declared length
// must equal StatusFrameSize; a mismatch is reported as ErrFrameAlignment
// and the caller must treat the stream as dead.
func DecodeStatus(frame []byte) (Status, error) {
	var s Status
	if len(frame) != StatusFrameSize {
		return s, fmt.Errorf("%w: frame is %d bytes, expected %d", ErrFrameAlignment, len(frame), StatusFrameSize)
	}

	off := 0
	s.Length = binary.BigEndian.Uint32(frame[off:])
	off += 4
	s.TimeMS = binary.BigEndian.Uint64(frame[off:])
	off += 8
	for i := 0; i < JointCount; i++ {
		s.Joints[i] = math.Float64frombits(binary.BigEndian.Uint64(frame[off:]))
		off += 8
	}
	for i := 0; i < JointCount; i++ {
		s.Forces[i] = math.Float64frombits(binary.BigEndian.Uint64(frame[off:]))
		off += 8
	}
	s.RobotMode = int32(binary.BigEndian.Uint32(frame[off:]))
	off += 4
	for i := 0; i < JointCount; i++ {
		s.JointModes[i] = int32(binary.BigEndian.Uint32(frame[off:]))
		off += 4
	}

	if s.Length != StatusFrameSize {
		return s, fmt.Errorf("%w: declared length %d, expected %d", ErrFrameAlignment, s.Length, StatusFrameSize)
	}
	return s, nil
}

// EncodeStatus encodes a status into its wire frame. The daemon itself only
// decodes; encoding exists for the test fixtures and bench tooling that
// stand in for the controller.
func EncodeStatus(s *Status) []byte {
	frame := make([]byte, StatusFrameSize)

	off := 0
	binary.BigEndian.PutUint32(frame[off:], StatusFrameSize)
	off += 4
	binary.BigEndian.PutUint64(frame[off:], s.TimeMS)
	off += 8
	for i := 0; i < JointCount; i++ {
		binary.BigEndian.PutUint64(frame[off:], math.Float64bits(s.Joints[i]))
		off += 8
	}
	for i := 0; i < JointCount; i++ {
		binary.BigEndian.PutUint64(frame[off:], math.Float64bits(s.Forces[i]))
		off += 8
	}
	binary.BigEndian.PutUint32(frame[off:], uint32(s.RobotMode))
	off += 4
	for i := 0; i < JointCount; i++ {
		binary.BigEndian.PutUint32(frame[off:], uint32(s.JointModes[i]))
		off += 4
	}
	return frame
}

// BroadcastRecordSize is the size of the per-tick status broadcast record:
// one result byte followed by the six joint angles.
const BroadcastRecordSize = 1 + JointCount*8

// EncodeBroadcast builds the fixed-size record published on the status
// broadcast channel each tick.
func EncodeBroadcast(code int8, joints [JointCount]float64) []byte {
	record := make([]byte, BroadcastRecordSize)
	record[0] = byte(code)
	off := 1
	for i := 0; i < JointCount; i++ {
		binary.BigEndian.PutUint64(record[off:], math.Float64bits(joints[i]))
		off += 8
	}
	return record
}

// DecodeBroadcast parses a broadcast record, used by the statuscat tool and
// tests.
func DecodeBroadcast(record []byte) (int8, [JointCount]float64, error) {
	var joints [JointCount]float64
	if len(record) != BroadcastRecordSize {
		return 0, joints, fmt.Errorf("broadcast record is %d bytes, expected %d", len(record), BroadcastRecordSize)
	}
	code := int8(record[0])
	off := 1
	for i := 0; i < JointCount; i++ {
		joints[i] = math.Float64frombits(binary.BigEndian.Uint64(record[off:]))
		off += 8
	}
	return code, joints, nil
}
