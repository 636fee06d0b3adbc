package zerolog

import (
	"fmt"

	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/rs/zerolog"
)

// Adapter exposes a zerolog logger as logger.Logger
type Adapter struct {
	log *zerolog.Logger
}

// NewAdapter wraps a zerolog logger
func NewAdapter(log *zerolog.Logger) *Adapter {
	return &Adapter{log: log}
}

// Discard returns a logger that writes nothing
func Discard() *Adapter {
	nop := zerolog.Nop()
	return &Adapter{log: &nop}
}

func (a *Adapter) emit(level zerolog.Level, msg string) {
	a.log.WithLevel(level).Msg(msg)
}

func (a *Adapter) Print(args ...any) { a.log.Log().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Trace(args ...any) { a.emit(zerolog.TraceLevel, fmt.Sprint(args...)) }
func (a *Adapter) Debug(args ...any) { a.emit(zerolog.DebugLevel, fmt.Sprint(args...)) }
func (a *Adapter) Info(args ...any)  { a.emit(zerolog.InfoLevel, fmt.Sprint(args...)) }
func (a *Adapter) Warn(args ...any)  { a.emit(zerolog.WarnLevel, fmt.Sprint(args...)) }
func (a *Adapter) Error(args ...any) { a.emit(zerolog.ErrorLevel, fmt.Sprint(args...)) }
func (a *Adapter) Fatal(args ...any) { a.log.Fatal().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Panic(args ...any) { a.log.Panic().Msg(fmt.Sprint(args...)) }

func (a *Adapter) Printf(format string, args ...any) { a.log.Log().Msgf(format, args...) }
func (a *Adapter) Tracef(format string, args ...any) {
	a.emit(zerolog.TraceLevel, fmt.Sprintf(format, args...))
}
func (a *Adapter) Debugf(format string, args ...any) {
	a.emit(zerolog.DebugLevel, fmt.Sprintf(format, args...))
}
func (a *Adapter) Infof(format string, args ...any) {
	a.emit(zerolog.InfoLevel, fmt.Sprintf(format, args...))
}
func (a *Adapter) Warnf(format string, args ...any) {
	a.emit(zerolog.WarnLevel, fmt.Sprintf(format, args...))
}
func (a *Adapter) Errorf(format string, args ...any) {
	a.emit(zerolog.ErrorLevel, fmt.Sprintf(format, args...))
}
func (a *Adapter) Fatalf(format string, args ...any) { a.log.Fatal().Msgf(format, args...) }
func (a *Adapter) Panicf(format string, args ...any) { a.log.Panic().Msgf(format, args...) }

// WithError implements logger.Logger.
func (a *Adapter) WithError(err error) logger.Logger {
	derived := a.log.With().Err(err).Logger()
	return &Adapter{log: &derived}
}

// WithField implements logger.Logger.
func (a *Adapter) WithField(key string, value any) logger.Logger {
	derived := a.log.With().Interface(key, value).Logger()
	return &Adapter{log: &derived}
}

// WithFields implements logger.Logger.
func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	derived := a.log.With().Fields(fields).Logger()
	return &Adapter{log: &derived}
}

// SetLevel implements logger.Logger.
func (a *Adapter) SetLevel(level logger.Level) {
	leveled := a.log.Level(toZerologLevel(level))
	a.log = &leveled
}

// GetLevel implements logger.Logger.
func (a *Adapter) GetLevel() logger.Level {
	return toLevel(a.log.GetLevel())
}

var levels = []struct {
	own logger.Level
	zl  zerolog.Level
}{
	{logger.Disabled, zerolog.Disabled},
	{logger.NoLevel, zerolog.NoLevel},
	{logger.TraceLevel, zerolog.TraceLevel},
	{logger.DebugLevel, zerolog.DebugLevel},
	{logger.InfoLevel, zerolog.InfoLevel},
	{logger.WarnLevel, zerolog.WarnLevel},
	{logger.ErrorLevel, zerolog.ErrorLevel},
	{logger.FatalLevel, zerolog.FatalLevel},
	{logger.PanicLevel, zerolog.PanicLevel},
}

func toLevel(level zerolog.Level) logger.Level {
	for _, l := range levels {
		if l.zl == level {
			return l.own
		}
	}
	return logger.NoLevel
}

func toZerologLevel(level logger.Level) zerolog.Level {
	for _, l := range levels {
		if l.own == level {
			return l.zl
		}
	}
	return zerolog.NoLevel
}
