package logging

import "github.com/juju/loggo"

// CompatLogger is a minimal logging interface that may be provided
// when embedding the doubles in another harness, retaining
// compatibility with a plain *log.Logger.
type CompatLogger interface {
	// Printf prints a log message. Arguments are handled in the
	// manner of fmt.Printf.
	Printf(format string, v ...interface{})
}

// Logger adapts a loggo.Logger to the CompatLogger interface.
type Logger struct {
	loggo.Logger
}

// Printf is part of the CompatLogger interface.
func (l Logger) Printf(format string, v ...interface{}) {
	l.Debugf(format, v...)
}
