// Package logging builds the key/value logger shared by the binaries.
package logging

import (
	"io"

	"github.com/go-kratos/kratos/v2/log"
)

// New returns a logger writing to w with timestamp, caller and service keys
// attached to every line.
func New(w io.Writer, service string) log.Logger {
	return log.With(log.NewStdLogger(w),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service", service,
	)
}

// Discard is used by tests and by components constructed without a logger.
func Discard() log.Logger {
	return log.NewStdLogger(io.Discard)
}
