package core

import "errors"

var (
	ErrEmptySeries       = errors.New("empty candle series")
	ErrNonMonotonicTime  = errors.New("non-monotonic timestamp")
	ErrNegativePrice     = errors.New("negative price")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrUnknownPattern    = errors.New("unknown pattern kind")
	ErrUnknownDirection  = errors.New("unknown direction")
	ErrUnknownExitReason = errors.New("unknown exit reason")
)
