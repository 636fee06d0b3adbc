package core

import (
	"fmt"
	"time"
)

// Direction is the side a pattern points to
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Directions lists every direction in evaluation order
var Directions = []Direction{Bullish, Bearish}

// Sign returns +1 for bullish and -1 for bearish
func (d Direction) Sign() float64 {
	if d == Bearish {
		return -1
	}
	return 1
}

// Opposite returns the other direction
func (d Direction) Opposite() Direction {
	if d == Bearish {
		return Bullish
	}
	return Bearish
}

// Validate checks the direction is one of the closed set
func (d Direction) Validate() error {
	switch d {
	case Bullish, Bearish:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDirection, string(d))
	}
}

// PatternKind is the family of a detected price pattern
type PatternKind string

const (
	TrendCross PatternKind = "trend_cross"
	Pullback   PatternKind = "pullback"
	RangeBreak PatternKind = "range_break"
)

// PatternKinds lists every kind in detection order
var PatternKinds = []PatternKind{TrendCross, Pullback, RangeBreak}

// Validate checks the kind is one of the closed set
func (k PatternKind) Validate() error {
	switch k {
	case TrendCross, Pullback, RangeBreak:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPattern, string(k))
	}
}

// Pattern is a kind in a given direction
type Pattern struct {
	Kind      PatternKind `json:"pattern_kind"`
	Direction Direction   `json:"direction"`
}

// Name returns the display name used by reports
func (p Pattern) Name() string {
	switch p.Kind {
	case TrendCross:
		if p.Direction == Bullish {
			return "Golden Cross"
		}
		return "Death Cross"
	case Pullback:
		if p.Direction == Bullish {
			return "Bullish Pullback"
		}
		return "Bearish Pullback"
	case RangeBreak:
		if p.Direction == Bullish {
			return "Range Breakout"
		}
		return "Range Breakdown"
	}
	return string(p.Kind)
}

// String implements fmt.Stringer
func (p Pattern) String() string {
	return p.Name()
}

// PatternCandidate is a pattern detected on one bar, before persistence and filters
type PatternCandidate struct {
	BarIndex      int
	Direction     Direction
	Kind          PatternKind
	RawConfidence float64
}

// Pattern returns the kind and direction of the candidate
func (c PatternCandidate) Pattern() Pattern {
	return Pattern{Kind: c.Kind, Direction: c.Direction}
}

// ScoreComponent is one normalized dimension of the master score
type ScoreComponent struct {
	Name         string  `json:"name"`
	Raw          float64 `json:"raw"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ScoreBreakdown is the auditable decomposition of a master score
type ScoreBreakdown struct {
	Components  []ScoreComponent `json:"components"`
	MasterScore float64          `json:"master_score"`
}

// Component returns a component by name
func (b ScoreBreakdown) Component(name string) (ScoreComponent, bool) {
	for _, c := range b.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ScoreComponent{}, false
}

// Signal is a candidate that passed persistence and every robustness filter
type Signal struct {
	Symbol             string         `json:"symbol"`
	Timestamp          time.Time      `json:"timestamp"`
	BarIndex           int            `json:"bar_index"`
	Direction          Direction      `json:"direction"`
	Pattern            PatternKind    `json:"pattern_kind"`
	Confidence         float64        `json:"confidence"`
	EntryPrice         float64        `json:"entry_price"`
	StopLoss           float64        `json:"stop_loss"`
	Target             float64        `json:"target"`
	ATRAtEntry         float64        `json:"atr_at_entry"`
	FiltersPassed      int            `json:"filters_passed"`
	FiltersTotal       int            `json:"filters_total"`
	RobustnessScore    float64        `json:"robustness_score"`
	RobustnessMomentum float64        `json:"robustness_momentum"`
	TechnicalScore     float64        `json:"technical_score"`
	ContextScore       float64        `json:"context_score"`
	ContextMomentum    float64        `json:"context_momentum"`
	NewsSentiment      float64        `json:"news_sentiment"`
	MasterScore        float64        `json:"master_score"`
	QualityTier        string         `json:"quality_tier"`
	ScoreBreakdown     ScoreBreakdown `json:"score_breakdown"`
}

// PatternOf returns the kind and direction of the signal
func (s Signal) PatternOf() Pattern {
	return Pattern{Kind: s.Pattern, Direction: s.Direction}
}

// Risk returns the distance between entry and stop
func (s Signal) Risk() float64 {
	if s.EntryPrice > s.StopLoss {
		return s.EntryPrice - s.StopLoss
	}
	return s.StopLoss - s.EntryPrice
}

// Less orders signals by timestamp, then symbol, for chronological replay
func (s Signal) Less(other Signal) bool {
	if !s.Timestamp.Equal(other.Timestamp) {
		return s.Timestamp.Before(other.Timestamp)
	}
	return s.Symbol < other.Symbol
}
