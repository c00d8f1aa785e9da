package armio

import (
	"io"
	"sync"
)

// FrameReader turns a feedback port into a channel of fixed-size binary
// frames. A goroutine owns the blocking reads; the control loop receives
// from Frames with its own bounded wait, so the reader never dictates loop
// timing. When the stream ends or fails the channel is closed and Err
// reports what happened (nil means clean EOF).
type FrameReader struct {
	frames chan []byte

	errMu sync.Mutex
	err   error
}

// NewFrameReader starts reading frameSize-byte frames from r. The channel
// buffer absorbs bursts between ticks; the status reader drains it and keeps
// only the newest frame.
func NewFrameReader(r io.Reader, frameSize int) *FrameReader {
	fr := &FrameReader{
		frames: make(chan []byte, 16),
	}

	go func() {
		defer close(fr.frames)
		for {
			buf := make([]byte, frameSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				if err != io.EOF {
					fr.setErr(err)
				}
				return
			}
			fr.frames <- buf
		}
	}()

	return fr
}

// Frames returns the channel of received frames. It is closed when the
// stream ends.
func (fr *FrameReader) Frames() <-chan []byte {
	return fr.frames
}

// Err returns the terminal read error, or nil if the stream ended cleanly
// (or has not ended yet).
func (fr *FrameReader) Err() error {
	fr.errMu.Lock()
	defer fr.errMu.Unlock()
	return fr.err
}

func (fr *FrameReader) setErr(err error) {
	fr.errMu.Lock()
	defer fr.errMu.Unlock()
	fr.err = err
}
