package simulator

import "github.com/raykavin/signalrun/pkg/core"

// TrailingStop is a chandelier stop: it trails the best price reached since
// activation by a fixed offset and only ever tightens.
type TrailingStop struct {
	direction core.Direction
	offset    float64
	extreme   float64 // highest high for longs, lowest low for shorts
	level     float64
	active    bool
}

// NewTrailingStop creates an inactive stop trailing by offset
func NewTrailingStop(direction core.Direction, offset float64) *TrailingStop {
	return &TrailingStop{direction: direction, offset: offset}
}

// Start activates the stop from the current extreme and stop level
func (t *TrailingStop) Start(extreme, level float64) {
	t.extreme = extreme
	t.level = level
	t.active = true
}

// Stop deactivates the trailing stop
func (t *TrailingStop) Stop() {
	t.active = false
}

// Active reports whether the stop is trailing
func (t *TrailingStop) Active() bool {
	return t.active
}

// Level returns the current stop level
func (t *TrailingStop) Level() float64 {
	return t.level
}

// Update moves the extreme with the bar range and ratchets the level. It
// returns the level, which never loosens.
func (t *TrailingStop) Update(high, low float64) float64 {
	if !t.active {
		return t.level
	}

	if t.direction == core.Bearish {
		t.extreme = min(t.extreme, low)
		t.level = min(t.level, t.extreme+t.offset)
		return t.level
	}

	t.extreme = max(t.extreme, high)
	t.level = max(t.level, t.extreme-t.offset)
	return t.level
}
