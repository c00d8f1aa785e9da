// Package monitoring holds the daemon-wide diagnostic logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests typically mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Verbose gates Debugf. The daemon flips it on for -verbose runs so that
// outgoing arm directives can be echoed without drowning normal operation.
var Verbose bool

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs only when Verbose is set.
func Debugf(format string, v ...interface{}) {
	if Verbose {
		Logf(format, v...)
	}
}
