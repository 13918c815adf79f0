// Package log provides the minimal debug logging seam used by this library.
// Logging is disabled by default; supply an implementation via SetLogger to
// receive debug events, such as memory pin refusals or guards reclaimed by the
// garbage collector before being closed.
package log

var logger Interface = noopLogger{}

// Interface is implemented by any logger able to receive the library's debug
// events.
type Interface interface {
	// Debugf logs v using a format string.
	Debugf(format string, v ...interface{})
}

// SetLogger sets the logger used by the library and enables debug logging.
func SetLogger(l Interface) {
	logger = l
}

// Debugf writes to the log using the configured logger.
func Debugf(format string, v ...interface{}) {
	if logger != nil {
		logger.Debugf(format, v...)
	}
}

// DebugEnabled returns true if a logger has been supplied via SetLogger.
func DebugEnabled() bool {
	switch logger.(type) {
	case noopLogger, nil:
		return false
	default:
		return true
	}
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, v ...interface{}) {
	// do nothing
}
