package signalrun

import (
	"io"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/logger"
)

// Option is a functional option for configuring a SignalRun instance
type Option func(*SignalRun)

// WithLogger replaces DefaultLog
func WithLogger(log logger.Logger) Option {
	return func(s *SignalRun) {
		s.log = log
	}
}

// WithStorage persists every signal and closed trade
func WithStorage(storage core.ResultStorage) Option {
	return func(s *SignalRun) {
		s.storage = storage
	}
}

// WithSharedAccount replays all symbols under one account and daily
// governor, in time order, instead of independently
func WithSharedAccount() Option {
	return func(s *SignalRun) {
		s.shared = true
	}
}

// WithParallelism bounds the goroutines of independent replays
func WithParallelism(n int) Option {
	return func(s *SignalRun) {
		s.parallelism = n
	}
}

// WithProgress draws a progress bar on w while replaying
func WithProgress(w io.Writer) Option {
	return func(s *SignalRun) {
		s.progress = w
	}
}
