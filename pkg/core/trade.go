package core

import (
	"fmt"
	"time"
)

// TradeStatus is the lifecycle state of a simulated position
type TradeStatus string

const (
	StatusNew     TradeStatus = "NEW"
	StatusOpen    TradeStatus = "OPEN"
	StatusPartial TradeStatus = "PARTIAL"
	StatusClosed  TradeStatus = "CLOSED"
)

// ExitReason explains why a trade was closed
type ExitReason string

const (
	ExitNone             ExitReason = ""
	ExitStopLoss         ExitReason = "stop_loss"
	ExitTarget           ExitReason = "target"
	ExitTrailingStop     ExitReason = "trailing_stop"
	ExitTimeExit         ExitReason = "time_exit"
	ExitDailyLimitForced ExitReason = "daily_limit_forced"
)

// ExitReasons lists every terminal reason
var ExitReasons = []ExitReason{
	ExitStopLoss, ExitTarget, ExitTrailingStop, ExitTimeExit, ExitDailyLimitForced,
}

// Validate checks the reason is one of the closed set
func (r ExitReason) Validate() error {
	for _, reason := range ExitReasons {
		if r == reason {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownExitReason, string(r))
}

// Trade is a simulated position from admission to close
type Trade struct {
	Symbol           string      `json:"symbol"`
	EntryDate        time.Time   `json:"entry_date"`
	EntryPrice       float64     `json:"entry_price"`
	StopLoss         float64     `json:"stop_loss"`
	InitialStop      float64     `json:"initial_stop"`
	Target           float64     `json:"target"`
	Shares           float64     `json:"shares"`
	RemainingShares  float64     `json:"remaining_shares"`
	Direction        Direction   `json:"direction"`
	Pattern          PatternKind `json:"pattern"`
	Confidence       float64     `json:"confidence"`
	MasterScore      float64     `json:"master_score"`
	ATRAtEntry       float64     `json:"atr_at_entry"`
	Status           TradeStatus `json:"status"`
	PartialExitPrice float64     `json:"partial_exit_price"`
	RealizedPnL      float64     `json:"realized_pnl"`
	Commission       float64     `json:"commission"`
	PnLPct           float64     `json:"pnl_pct"`
	RMultiple        float64     `json:"r_multiple"`
	BarsHeld         int         `json:"bars_held"`
	ExitDate         time.Time   `json:"exit_date"`
	ExitPrice        float64     `json:"exit_price"`
	ExitReason       ExitReason  `json:"exit_reason"`
}

// InitialRisk returns the per-share distance between entry and the initial stop
func (t Trade) InitialRisk() float64 {
	if t.EntryPrice > t.InitialStop {
		return t.EntryPrice - t.InitialStop
	}
	return t.InitialStop - t.EntryPrice
}

// IsWin reports whether the trade closed with a positive net result
func (t Trade) IsWin() bool {
	return t.Status == StatusClosed && t.RealizedPnL > 0
}

// IsActive reports whether the trade still holds shares
func (t Trade) IsActive() bool {
	return t.Status == StatusOpen || t.Status == StatusPartial
}

// PatternOf returns the kind and direction of the trade
func (t Trade) PatternOf() Pattern {
	return Pattern{Kind: t.Pattern, Direction: t.Direction}
}
