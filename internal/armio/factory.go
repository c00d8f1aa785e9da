package armio

import (
	"fmt"
	"net"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DialTimeout bounds how long Open waits for a TCP endpoint. The arm either
// answers quickly or is unreachable; waiting longer only delays the fatal
// connectivity error.
const DialTimeout = 5 * time.Second

// Open creates a Port from an endpoint spec. Supported schemes:
//
//	tcp:host:port       TCP connection (arm command and feedback channels)
//	serial:/dev/ttyUSB0 serial device using the provided options
//
// A spec without a scheme is treated as tcp.
func Open(spec string, opts PortOptions) (Port, error) {
	scheme, rest, found := strings.Cut(spec, ":")
	if !found {
		return nil, fmt.Errorf("invalid endpoint %q: expected tcp:host:port or serial:path", spec)
	}

	switch scheme {
	case "tcp":
		conn, err := net.DialTimeout("tcp", rest, DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to tcp:%s: %w", rest, err)
		}
		return conn, nil

	case "serial":
		mode, err := opts.SerialMode()
		if err != nil {
			return nil, err
		}
		port, err := serial.Open(rest, mode)
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", rest, err)
		}
		return port, nil

	default:
		// Bare host:port is common enough on the command line to accept.
		conn, err := net.DialTimeout("tcp", spec, DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to tcp:%s: %w", spec, err)
		}
		return conn, nil
	}
}
