package armio

import (
	"io"
	"sync"
)

// TestPort implements Port with scripted reads and captured writes. Read
// blocks until data is queued with Feed or the port is closed, which lets
// tests drive the frame reader and line source deterministically.
type TestPort struct {
	mu       sync.Mutex
	cond     *sync.Cond
	readBuf  []byte
	written  []byte
	writeErr error
	closed   bool
}

// NewTestPort creates an empty TestPort.
func NewTestPort() *TestPort {
	p := &TestPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Feed queues data for subsequent Read calls.
func (p *TestPort) Feed(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf = append(p.readBuf, data...)
	p.cond.Broadcast()
}

// Read returns queued data, blocking until some is available or the port is
// closed.
func (p *TestPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.readBuf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.readBuf) == 0 {
		return 0, io.EOF
	}

	n := copy(buf, p.readBuf)
	p.readBuf = p.readBuf[n:]
	return n, nil
}

// Write captures the written bytes, or fails with the configured error.
func (p *TestPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, data...)
	return len(data), nil
}

// Close marks the port closed and unblocks pending reads.
func (p *TestPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}

// SetWriteError makes subsequent writes fail with err.
func (p *TestPort) SetWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Written returns everything written to the port so far.
func (p *TestPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}

// WrittenLines returns the written data split into newline-terminated lines.
func (p *TestPort) WrittenLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lines []string
	start := 0
	for i, b := range p.written {
		if b == '\n' {
			lines = append(lines, string(p.written[start:i]))
			start = i + 1
		}
	}
	return lines
}
