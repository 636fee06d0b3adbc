package risk

import "errors"

var (
	ErrZeroATR            = errors.New("risk: atr is zero, position cannot be sized")
	ErrZeroStopDistance   = errors.New("risk: entry equals stop, position cannot be sized")
	ErrNonPositiveCapital = errors.New("risk: capital must be positive")
	ErrNonPositivePrice   = errors.New("risk: price must be positive")
)
