// Package logger defines the leveled, structured logging contract used across
// the pipeline. Concrete backends live in subpackages.
package logger

// Level is a logging severity
type Level int8

const (
	Disabled   Level = -1   // no output at all
	TraceLevel Level = iota // per bar decisions
	DebugLevel              // admissions, rejections and exits
	InfoLevel               // run level progress
	WarnLevel               // degraded inputs such as missing context values
	ErrorLevel              // failed operations
	FatalLevel              // logs then exits the process
	PanicLevel              // logs then panics
	NoLevel                 // no level attached
)

// Logger is implemented by every logging backend
type Logger interface {
	// Derived loggers carrying extra context
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger

	Print(args ...any)
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)
	Panic(args ...any)

	Printf(format string, args ...any)
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Panicf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}
