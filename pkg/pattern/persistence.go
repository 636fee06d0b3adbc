package pattern

import "github.com/raykavin/signalrun/pkg/core"

// MinHistory is the number of bars before i the validator needs. A looser
// guard (i < 1) exists in older variants of this check; it lets a bar with a
// single prior bar through and cannot compute the double slope, so the
// two-bar requirement is the one enforced here.
const MinHistory = 2

// Snapshot compares bar i with the bars before it
type Snapshot struct {
	SMA20TrendingUp   bool
	SMA20TrendingDown bool
	SMA50TrendingUp   bool
	SMA50TrendingDown bool
	SpreadWidening    bool // SMA20-SMA50 spread grew on the last step
	SpreadNarrowing   bool
	AboveSMA20        bool // close above SMA20 on both i and i-1
	BelowSMA20        bool // close below SMA20 on both i and i-1
	RSIRising         bool
	RSIFalling        bool
	OffsetDiverging   bool // close/SMA20 offset moved up between i-1 and i
	OffsetConverging  bool
	RSI               float64
	SMA20             float64
	SMA50             float64
}

// Validator rejects candidates that are single-bar artifacts. It runs on the
// bar after detection, so a pattern must still hold one bar later.
type Validator struct {
	settings core.PatternSettings
}

// NewValidator creates a validator with the exhaustion thresholds in settings
func NewValidator(settings core.PatternSettings) *Validator {
	return &Validator{settings: settings}
}

// TakeSnapshot computes the persistence snapshot at bar i. ok is false when
// fewer than MinHistory prior bars carry defined indicators.
func TakeSnapshot(df *core.Dataframe, i int) (Snapshot, bool) {
	if i < MinHistory || i >= df.Len() {
		return Snapshot{}, false
	}

	s0, s1, s2 := df.Snapshot(i), df.Snapshot(i-1), df.Snapshot(i-2)
	if !s0.Defined() || !s1.Defined() || !s2.Defined() {
		return Snapshot{}, false
	}
	if s0.SMA20 == 0 || s1.SMA20 == 0 {
		return Snapshot{}, false
	}

	offset0 := (df.Close[i] - s0.SMA20) / s0.SMA20
	offset1 := (df.Close[i-1] - s1.SMA20) / s1.SMA20
	spread0, spread1 := s0.SMA20-s0.SMA50, s1.SMA20-s1.SMA50

	return Snapshot{
		SMA20TrendingUp:   s0.SMA20 > s1.SMA20 && s1.SMA20 > s2.SMA20,
		SMA20TrendingDown: s0.SMA20 < s1.SMA20 && s1.SMA20 < s2.SMA20,
		SMA50TrendingUp:   s0.SMA50 > s1.SMA50,
		SMA50TrendingDown: s0.SMA50 < s1.SMA50,
		SpreadWidening:    spread0 > spread1,
		SpreadNarrowing:   spread0 < spread1,
		AboveSMA20:        offset0 > 0 && offset1 > 0,
		BelowSMA20:        offset0 < 0 && offset1 < 0,
		RSIRising:         s0.RSI > s1.RSI,
		RSIFalling:        s0.RSI < s1.RSI,
		OffsetDiverging:   offset0 > offset1,
		OffsetConverging:  offset0 < offset1,
		RSI:               s0.RSI,
		SMA20:             s0.SMA20,
		SMA50:             s0.SMA50,
	}, true
}

// Validate reports whether a candidate of the given kind and direction still
// holds on bar i. Insufficient history is not an error: it returns false.
func (v *Validator) Validate(direction core.Direction, kind core.PatternKind, df *core.Dataframe, i int) bool {
	snapshot, ok := TakeSnapshot(df, i)
	if !ok {
		return false
	}

	bullish := direction == core.Bullish

	switch kind {
	case core.TrendCross:
		if bullish {
			return snapshot.SMA20TrendingUp && snapshot.SMA20 > snapshot.SMA50 &&
				snapshot.SpreadWidening && snapshot.AboveSMA20
		}
		return snapshot.SMA20TrendingDown && snapshot.SMA20 < snapshot.SMA50 &&
			snapshot.SpreadNarrowing && snapshot.BelowSMA20

	case core.Pullback:
		if bullish {
			return snapshot.SMA20 > snapshot.SMA50 && snapshot.RSIRising && snapshot.AboveSMA20
		}
		return snapshot.SMA20 < snapshot.SMA50 && snapshot.RSIFalling && snapshot.BelowSMA20

	case core.RangeBreak:
		if bullish {
			return snapshot.RSI < v.settings.BreakoutExhaustion && snapshot.OffsetDiverging
		}
		return snapshot.RSI > v.settings.BreakdownExhaustion && snapshot.OffsetConverging
	}

	return false
}
