package arm

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/armlink/internal/armio"
	"github.com/banshee-data/armlink/internal/timeutil"
)

// DefaultStatusWait bounds how long a poll blocks waiting for the first
// feedback frame of a tick.
const DefaultStatusWait = 100 * time.Millisecond

// ErrStatusTimeout is returned when no feedback frame arrived within the
// poll window. The previous snapshot stays current.
var ErrStatusTimeout = errors.New("timed out waiting for status frame")

// ErrFeedbackClosed is returned once the feedback stream has ended. It is
// fatal: the daemon cannot supervise an arm it cannot observe.
var ErrFeedbackClosed = errors.New("status feedback stream closed")

// StatusReader owns the arm's status snapshot. Each Poll waits up to the
// configured window for a frame, then drains any backlog so the snapshot
// reflects the newest frame the controller has sent, not the oldest one
// still queued.
type StatusReader struct {
	frames *armio.FrameReader
	clock  timeutil.Clock
	wait   time.Duration

	status Status
	fresh  bool
	closed bool
}

// NewStatusReader wraps a feedback port in a frame reader. The reader takes
// ownership of the port's read side.
func NewStatusReader(port armio.Port, clock timeutil.Clock) *StatusReader {
	return &StatusReader{
		frames: armio.NewFrameReader(port, StatusFrameSize),
		clock:  clock,
		wait:   DefaultStatusWait,
	}
}

// SetPollWindow overrides the per-poll wait, used by tests and bench
// tooling. Zero or negative durations are ignored.
func (r *StatusReader) SetPollWindow(d time.Duration) {
	if d > 0 {
		r.wait = d
	}
}

// Status returns the last snapshot. Valid only after the first successful
// Poll; see Fresh.
func (r *StatusReader) Status() *Status { return &r.status }

// Fresh reports whether at least one frame has ever been decoded.
func (r *StatusReader) Fresh() bool { return r.fresh }

// Poll updates the snapshot from the feedback stream. It blocks up to the
// poll window for the first frame, then consumes whatever else is already
// buffered. ErrStatusTimeout leaves the previous snapshot in place;
// ErrFrameAlignment and ErrFeedbackClosed are fatal.
func (r *StatusReader) Poll() error {
	if r.closed {
		return r.streamErr()
	}

	frame, err := r.waitFrame()
	if err != nil {
		return err
	}

	// Drain to the freshest frame already delivered.
	for {
		select {
		case next, ok := <-r.frames.Frames():
			if !ok {
				// Decode what we have; the closed stream surfaces on the
				// next poll.
				r.closed = true
				return r.decode(frame)
			}
			frame = next
		default:
			return r.decode(frame)
		}
	}
}

func (r *StatusReader) waitFrame() ([]byte, error) {
	select {
	case frame, ok := <-r.frames.Frames():
		if !ok {
			r.closed = true
			return nil, r.streamErr()
		}
		return frame, nil
	case <-r.clock.After(r.wait):
		return nil, ErrStatusTimeout
	}
}

func (r *StatusReader) decode(frame []byte) error {
	s, err := DecodeStatus(frame)
	if err != nil {
		return err
	}
	r.status = s
	r.fresh = true
	return nil
}

func (r *StatusReader) streamErr() error {
	if err := r.frames.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrFeedbackClosed, err)
	}
	return ErrFeedbackClosed
}
