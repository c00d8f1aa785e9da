package armio

import (
	"bufio"
	"io"
	"sync"
)

// LineSource turns a command input stream into non-blocking line reads. A
// goroutine owns the blocking scan; the control loop polls TryLine once per
// tick. End of stream is a normal shutdown condition, a scan error is not —
// the loop distinguishes them via Err.
type LineSource struct {
	lines chan string

	mu   sync.Mutex
	done bool
	err  error
}

// NewLineSource starts scanning lines from r.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{
		lines: make(chan string, 64),
	}

	go func() {
		defer close(s.lines)
		scan := bufio.NewScanner(r)
		for scan.Scan() {
			s.lines <- scan.Text()
		}
		if err := scan.Err(); err != nil && err != io.EOF {
			s.setErr(err)
		}
	}()

	return s
}

// TryLine returns the next pending line without blocking. ok is false when
// no line is pending or the stream has ended; once the stream has ended and
// every buffered line has been consumed, Done reports true.
func (s *LineSource) TryLine() (line string, ok bool) {
	select {
	case line, ok = <-s.lines:
		if !ok {
			s.mu.Lock()
			s.done = true
			s.mu.Unlock()
		}
		return line, ok
	default:
		return "", false
	}
}

// Done reports whether the stream has ended and all pending lines have been
// consumed.
func (s *LineSource) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the terminal scan error, or nil if the stream ended cleanly or
// is still open.
func (s *LineSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *LineSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
