// Package armio provides the I/O channel layer between the daemon and the
// arm: port abstractions over TCP and serial transports, a line source for
// the command input, a fixed-size frame reader for the feedback stream, and
// a fan-out publisher for the status broadcast.
package armio

import (
	"fmt"
	"io"
)

// ErrWriteFailed indicates a short write on an arm channel.
var ErrWriteFailed = fmt.Errorf("failed to write to arm channel")

// Port defines the minimal interface needed for an arm channel endpoint.
// Both net.Conn and serial ports satisfy it.
type Port interface {
	io.ReadWriter
	io.Closer
}
