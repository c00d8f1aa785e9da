package armio

import (
	"strings"
	"sync"
)

// Channel wraps a Port with line-oriented writes. The arm's command channel
// takes one ASCII directive per line; a short write leaves the arm with a
// truncated directive, so it is reported as ErrWriteFailed rather than
// retried.
type Channel struct {
	port    Port
	writeMu sync.Mutex
}

// NewChannel creates a Channel over the given port.
func NewChannel(port Port) *Channel {
	return &Channel{port: port}
}

// WriteLine writes one directive to the channel, appending a newline if the
// directive does not already end with one.
func (c *Channel) WriteLine(directive string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !strings.HasSuffix(directive, "\n") {
		directive += "\n"
	}
	n, err := c.port.Write([]byte(directive))
	if err != nil {
		return err
	}
	if n != len(directive) {
		return ErrWriteFailed
	}
	return nil
}

// Close closes the underlying port.
func (c *Channel) Close() error {
	return c.port.Close()
}
