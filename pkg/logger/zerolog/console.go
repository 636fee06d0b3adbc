// Package zerolog adapts github.com/rs/zerolog to logger.Logger with a
// compact coloured console layout.
package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	messageWidth = 72
	fileWidth    = 18
	lineWidth    = 4
)

// Options configures the console logger
type Options struct {
	Level      string
	TimeFormat string
	Colored    bool
	JSON       bool
	Writer     io.Writer // defaults to stdout
}

// New builds a zerolog logger from options. JSON output skips the console formatting.
func New(opts Options) (*zerolog.Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
	}

	out := opts.Writer
	if out == nil {
		out = os.Stdout
	}

	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:             out,
			NoColor:         !opts.Colored,
			TimeFormat:      opts.TimeFormat,
			FormatLevel:     levelLabel,
			FormatMessage:   paddedMessage,
			FormatCaller:    shortCaller,
			FormatTimestamp: func(i any) string { return timestamp(i, opts.TimeFormat) },
		}
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &log, nil
}

var levelLabels = map[string]func(string, ...any) string{
	zerolog.LevelTraceValue: term.Cyanf,
	zerolog.LevelDebugValue: term.Cyanf,
	zerolog.LevelInfoValue:  term.Greenf,
	zerolog.LevelWarnValue:  term.Yellowf,
	zerolog.LevelErrorValue: term.Redf,
	zerolog.LevelFatalValue: term.Redf,
	zerolog.LevelPanicValue: term.Redf,
}

func levelLabel(i any) string {
	level, _ := i.(string)
	paint, ok := levelLabels[level]
	if !ok {
		return term.Whitef("[???]")
	}
	return paint("[%s]", strings.ToUpper(level[:3]))
}

func paddedMessage(i any) string {
	msg, _ := i.(string)
	if msg == "" {
		return ">"
	}
	if len(msg) > messageWidth {
		msg = msg[:messageWidth]
	}
	return term.Whitef("> %-*s", messageWidth, msg)
}

func shortCaller(i any) string {
	caller, _ := i.(string)
	if caller == "" {
		return ""
	}

	file, line, found := strings.Cut(filepath.Base(caller), ":")
	if !found {
		return caller
	}

	if len(file) > fileWidth {
		file = file[:fileWidth]
	}
	if len(line) > lineWidth {
		line = line[len(line)-lineWidth:]
	}

	return term.Yellowf("[%-*s:%*s]", fileWidth, file, lineWidth, line)
}

func timestamp(i any, layout string) string {
	value, ok := i.(string)
	if !ok {
		return term.Cyanf("[%v]", i)
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		value = ts.In(time.Local).Format(layout)
	}
	return term.Cyanf("[%s]", value)
}
