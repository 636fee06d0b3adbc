package risk

import (
	"math"

	"github.com/raykavin/signalrun/pkg/core"
)

// Position is the result of sizing one entry
type Position struct {
	Shares          float64 `json:"shares"`
	RiskPct         float64 `json:"risk_pct"`
	VolatilityRatio float64 `json:"volatility_ratio"`
	DollarRisk      float64 `json:"dollar_risk"`
	Notional        float64 `json:"notional"`
	Capped          bool    `json:"capped"`
}

// Sizer computes volatility adjusted position sizes: volatile instruments
// risk a smaller fraction of capital, so the dollar loss at the stop is
// capital times the tier's risk fraction.
type Sizer struct {
	tiers          core.RiskTiers
	volatilityHigh float64
	volatilityLow  float64
	maxPositionPct float64
}

// NewSizer creates a sizer from risk settings
func NewSizer(settings core.RiskSettings) *Sizer {
	return &Sizer{
		tiers:          settings.RiskPerTradeTiers,
		volatilityHigh: settings.VolatilityHigh,
		volatilityLow:  settings.VolatilityLow,
		maxPositionPct: settings.MaxPositionPct,
	}
}

// RiskPct returns the fraction of capital risked for a volatility ratio (ATR/close)
func (s *Sizer) RiskPct(volatilityRatio float64) float64 {
	switch {
	case volatilityRatio > s.volatilityHigh:
		return s.tiers.High
	case volatilityRatio >= s.volatilityLow:
		return s.tiers.Medium
	default:
		return s.tiers.Low
	}
}

// Size returns the shares to buy at entry with the given stop. The notional
// is capped at the maximum position fraction of capital.
func (s *Sizer) Size(capital, entry, stop, atr, closePrice float64) (Position, error) {
	if capital <= 0 {
		return Position{}, ErrNonPositiveCapital
	}
	if entry <= 0 || closePrice <= 0 {
		return Position{}, ErrNonPositivePrice
	}
	if atr <= 0 || math.IsNaN(atr) {
		return Position{}, ErrZeroATR
	}

	distance := math.Abs(entry - stop)
	if distance == 0 {
		return Position{}, ErrZeroStopDistance
	}

	ratio := atr / closePrice
	riskPct := s.RiskPct(ratio)
	shares := capital * riskPct / distance

	position := Position{RiskPct: riskPct, VolatilityRatio: ratio}
	if maxShares := capital * s.maxPositionPct / entry; shares > maxShares {
		shares = maxShares
		position.Capped = true
	}

	position.Shares = shares
	position.Notional = shares * entry
	position.DollarRisk = shares * distance

	return position, nil
}
