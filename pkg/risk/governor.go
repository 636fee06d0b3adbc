// Package risk holds the account-level daily governor and the volatility
// adjusted position sizer.
package risk

import (
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Rejection is the reason an entry was refused by the governor
type Rejection string

const (
	Accepted          Rejection = ""
	RejectDailyTrades Rejection = "daily_trades"
	RejectDailyLoss   Rejection = "daily_loss"
)

// DailyRiskState is the risk budget consumed on one calendar date
type DailyRiskState struct {
	Date             string  `json:"date"`
	CumulativePnLPct float64 `json:"cumulative_pnl_pct"`
	TradesToday      int     `json:"trades_today"`
	StartCapital     float64 `json:"start_capital"`
}

// Limits are the daily governance thresholds
type Limits struct {
	MaxDailyTrades int
	DailyLossLimit float64 // negative fraction of start-of-day capital, e.g. -0.02
}

// Governor owns the account capital and its daily risk state. A single
// governor can be shared by simulations of several symbols under one account.
type Governor struct {
	mu       sync.Mutex
	limits   Limits
	location *time.Location
	capital  float64
	state    DailyRiskState
}

// NewGovernor creates a governor for an account. Calendar dates are taken in
// location; nil means UTC.
func NewGovernor(capital float64, limits Limits, location *time.Location) *Governor {
	if location == nil {
		location = time.UTC
	}
	return &Governor{
		limits:   limits,
		location: location,
		capital:  capital,
	}
}

// Capital returns the current account capital
func (g *Governor) Capital() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capital
}

// State returns a copy of the current daily state
func (g *Governor) State() DailyRiskState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Roll resets the daily state when t falls on a later calendar date. Events
// dated before the current day are booked on the current day.
func (g *Governor) Roll(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roll(t)
}

// Check reports whether a new entry at t is within the daily limits
func (g *Governor) Check(t time.Time) Rejection {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.roll(t)
	return g.check()
}

// Admit checks the limits and, when accepted, counts the entry against the
// day in the same critical section
func (g *Governor) Admit(t time.Time) Rejection {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.roll(t)
	if rejection := g.check(); rejection != Accepted {
		return rejection
	}
	g.state.TradesToday++
	return Accepted
}

// RecordClose realizes pnl on the account and on the day it closed
func (g *Governor) RecordClose(t time.Time, pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.roll(t)
	g.capital += pnl
	if g.state.StartCapital > 0 {
		g.state.CumulativePnLPct += pnl / g.state.StartCapital
	}
}

// Breached reports whether the loss limit of the current day has been reached
func (g *Governor) Breached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.CumulativePnLPct <= g.limits.DailyLossLimit
}

func (g *Governor) roll(t time.Time) {
	date := t.In(g.location).Format(dateLayout)
	if date <= g.state.Date {
		return
	}
	g.state = DailyRiskState{Date: date, StartCapital: g.capital}
}

func (g *Governor) check() Rejection {
	if g.state.TradesToday >= g.limits.MaxDailyTrades {
		return RejectDailyTrades
	}
	if g.state.CumulativePnLPct <= g.limits.DailyLossLimit {
		return RejectDailyLoss
	}
	return Accepted
}
