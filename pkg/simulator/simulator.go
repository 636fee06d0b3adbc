// Package simulator replays admitted signals bar by bar: sizing, stop and
// target exits, partial profit, chandelier trailing and time exits, under an
// account level daily risk governor.
package simulator

import (
	"sort"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/risk"
)

// Admission rejection reasons owned by the simulator
const (
	RejectOpenPosition risk.Rejection = "open_position"
	RejectSizing       risk.Rejection = "sizing"
)

// Diagnostics counts what happened to submitted signals
type Diagnostics struct {
	Submitted            int `json:"submitted"`
	Admitted             int `json:"admitted"`
	RejectedOpenPosition int `json:"rejected_open_position"`
	RejectedDailyTrades  int `json:"rejected_daily_trades"`
	RejectedDailyLoss    int `json:"rejected_daily_loss"`
	RejectedSizing       int `json:"rejected_sizing"`
}

// Rejected returns the total of rejected signals
func (d Diagnostics) Rejected() int {
	return d.RejectedOpenPosition + d.RejectedDailyTrades + d.RejectedDailyLoss + d.RejectedSizing
}

// Add merges another set of counters
func (d *Diagnostics) Add(other Diagnostics) {
	d.Submitted += other.Submitted
	d.Admitted += other.Admitted
	d.RejectedOpenPosition += other.RejectedOpenPosition
	d.RejectedDailyTrades += other.RejectedDailyTrades
	d.RejectedDailyLoss += other.RejectedDailyLoss
	d.RejectedSizing += other.RejectedSizing
}

func (d *Diagnostics) reject(reason risk.Rejection) {
	switch reason {
	case RejectOpenPosition:
		d.RejectedOpenPosition++
	case risk.RejectDailyTrades:
		d.RejectedDailyTrades++
	case risk.RejectDailyLoss:
		d.RejectedDailyLoss++
	case RejectSizing:
		d.RejectedSizing++
	}
}

// CloseHandler is notified of every finalized trade
type CloseHandler func(trade core.Trade)

type position struct {
	trade        core.Trade
	trailing     *TrailingStop
	partialTaken bool
	partialPnL   float64
	partialFees  float64
}

// Simulator holds at most one open position for its symbol. It is not safe
// for concurrent use; the governor it shares is.
type Simulator struct {
	symbol    string
	settings  core.RiskSettings
	sizer     *risk.Sizer
	governor  *risk.Governor
	log       logger.Logger
	handlers  []CloseHandler
	open      *position
	lastClose float64
	lastTime  time.Time
	trades    []core.Trade

	diagnostics Diagnostics
}

// New creates a simulator for one symbol. Several simulators may share the
// governor to trade under one account.
func New(symbol string, settings core.RiskSettings, governor *risk.Governor, log logger.Logger) *Simulator {
	return &Simulator{
		symbol:   symbol,
		settings: settings,
		sizer:    risk.NewSizer(settings),
		governor: governor,
		log:      log.WithField("symbol", symbol),
	}
}

// OnClose registers a handler called after each trade closes
func (s *Simulator) OnClose(handler CloseHandler) {
	s.handlers = append(s.handlers, handler)
}

// Symbol returns the simulated symbol
func (s *Simulator) Symbol() string {
	return s.symbol
}

// Trades returns the finalized trades in close order
func (s *Simulator) Trades() []core.Trade {
	return s.trades
}

// Diagnostics returns the admission counters
func (s *Simulator) Diagnostics() Diagnostics {
	return s.diagnostics
}

// Open returns the open trade, if any
func (s *Simulator) Open() (core.Trade, bool) {
	if s.open == nil {
		return core.Trade{}, false
	}
	return s.open.trade, true
}

// Submit tries to open a trade for the signal at its entry price
func (s *Simulator) Submit(signal core.Signal) (core.Trade, risk.Rejection) {
	s.diagnostics.Submitted++

	if s.open != nil {
		return s.rejectSignal(signal, RejectOpenPosition)
	}

	if rejection := s.governor.Check(signal.Timestamp); rejection != risk.Accepted {
		return s.rejectSignal(signal, rejection)
	}

	sized, err := s.sizer.Size(s.governor.Capital(), signal.EntryPrice, signal.StopLoss,
		signal.ATRAtEntry, signal.EntryPrice)
	if err != nil {
		s.log.WithError(err).Debugf("cannot size %s at %s", signal.PatternOf(), signal.Timestamp)
		return s.rejectSignal(signal, RejectSizing)
	}

	if rejection := s.governor.Admit(signal.Timestamp); rejection != risk.Accepted {
		return s.rejectSignal(signal, rejection)
	}

	fees := sized.Shares * signal.EntryPrice * s.settings.CommissionRate
	trade := core.Trade{
		Symbol:          s.symbol,
		EntryDate:       signal.Timestamp,
		EntryPrice:      signal.EntryPrice,
		StopLoss:        signal.StopLoss,
		InitialStop:     signal.StopLoss,
		Target:          signal.Target,
		Shares:          sized.Shares,
		RemainingShares: sized.Shares,
		Direction:       signal.Direction,
		Pattern:         signal.Pattern,
		Confidence:      signal.Confidence,
		MasterScore:     signal.MasterScore,
		ATRAtEntry:      signal.ATRAtEntry,
		Status:          core.StatusOpen,
		Commission:      fees,
	}

	s.open = &position{
		trade:    trade,
		trailing: NewTrailingStop(signal.Direction, s.settings.ChandelierATRMultiple*signal.ATRAtEntry),
	}
	s.lastClose = signal.EntryPrice
	s.lastTime = signal.Timestamp
	s.diagnostics.Admitted++

	s.log.WithFields(map[string]any{
		"pattern": signal.PatternOf().Name(),
		"shares":  sized.Shares,
		"entry":   signal.EntryPrice,
		"stop":    signal.StopLoss,
		"target":  signal.Target,
	}).Debug("trade opened")

	return trade, risk.Accepted
}

func (s *Simulator) rejectSignal(signal core.Signal, reason risk.Rejection) (core.Trade, risk.Rejection) {
	s.diagnostics.reject(reason)
	s.log.Tracef("signal at %s rejected: %s", signal.Timestamp.Format(time.RFC3339), reason)
	return core.Trade{}, reason
}

// OnBar advances the open trade with a new bar. Bars at or before the entry
// time are ignored. It returns the trade when the bar closed it.
func (s *Simulator) OnBar(candle core.Candle) (core.Trade, bool) {
	if s.open == nil || !candle.Time.After(s.open.trade.EntryDate) {
		return core.Trade{}, false
	}

	p := s.open
	t := &p.trade
	t.BarsHeld++
	s.lastClose = candle.Close
	s.lastTime = candle.Time

	sign := t.Direction.Sign()

	// favorable and adverse extremes of the bar for the trade's side
	favorable, adverse := candle.High, candle.Low
	if t.Direction == core.Bearish {
		favorable, adverse = candle.Low, candle.High
	}

	if sign*(adverse-t.StopLoss) <= 0 {
		reason := core.ExitStopLoss
		if t.StopLoss != t.InitialStop {
			reason = core.ExitTrailingStop
		}
		return s.close(candle.Time, t.StopLoss, reason), true
	}

	if sign*(favorable-t.Target) >= 0 {
		return s.close(candle.Time, t.Target, core.ExitTarget), true
	}

	activation := t.EntryPrice + sign*s.settings.TrailingActivationR*t.InitialRisk()
	if !p.trailing.Active() && sign*(favorable-activation) >= 0 {
		s.activateTrailing(activation, favorable)
	}

	if p.trailing.Active() {
		t.StopLoss = p.trailing.Update(candle.High, candle.Low)
	}

	if t.BarsHeld >= s.settings.TimeExitBars {
		return s.close(candle.Time, candle.Close, core.ExitTimeExit), true
	}

	return core.Trade{}, false
}

// activateTrailing takes the partial profit at the activation price, moves the
// stop to breakeven and starts trailing from the bar's extreme
func (s *Simulator) activateTrailing(activation, extreme float64) {
	p := s.open
	t := &p.trade

	if fraction := s.settings.PartialExitFraction; fraction > 0 && !p.partialTaken {
		shares := t.Shares * fraction
		p.partialPnL = t.Direction.Sign() * (activation - t.EntryPrice) * shares
		p.partialFees = shares * activation * s.settings.CommissionRate
		p.partialTaken = true

		t.RemainingShares -= shares
		t.PartialExitPrice = activation
		t.Status = core.StatusPartial
		s.log.Debugf("partial exit of %.4f shares at %.4f", shares, activation)
	}

	breakeven := t.EntryPrice
	if t.Direction == core.Bearish {
		breakeven = min(t.StopLoss, breakeven)
	} else {
		breakeven = max(t.StopLoss, breakeven)
	}
	t.StopLoss = breakeven
	p.trailing.Start(extreme, breakeven)
}

// ForceClose closes the open trade at the latest known close, stamped at
func (s *Simulator) ForceClose(at time.Time, reason core.ExitReason) (core.Trade, bool) {
	if s.open == nil {
		return core.Trade{}, false
	}
	return s.close(at, s.lastClose, reason), true
}

// Finish closes a trade still open at the end of the data with a time exit
func (s *Simulator) Finish() []core.Trade {
	s.ForceClose(s.lastTime, core.ExitTimeExit)
	return s.trades
}

func (s *Simulator) close(at time.Time, price float64, reason core.ExitReason) core.Trade {
	p := s.open
	t := p.trade

	sign := t.Direction.Sign()
	exitFees := t.RemainingShares * price * s.settings.CommissionRate
	gross := p.partialPnL + sign*(price-t.EntryPrice)*t.RemainingShares

	t.Commission += p.partialFees + exitFees
	t.RealizedPnL = gross - t.Commission
	if notional := t.Shares * t.EntryPrice; notional > 0 {
		t.PnLPct = t.RealizedPnL / notional
	}
	if initial := t.Shares * t.InitialRisk(); initial > 0 {
		t.RMultiple = t.RealizedPnL / initial
	}

	t.RemainingShares = 0
	t.ExitDate = at
	t.ExitPrice = price
	t.ExitReason = reason
	t.Status = core.StatusClosed

	s.open = nil
	s.trades = append(s.trades, t)
	s.governor.RecordClose(at, t.RealizedPnL)

	s.log.WithFields(map[string]any{
		"reason": string(reason),
		"pnl":    t.RealizedPnL,
		"bars":   t.BarsHeld,
	}).Debug("trade closed")

	for _, handler := range s.handlers {
		handler(t)
	}

	return t
}

// Run replays precomputed signals against candles: on each bar exits are
// evaluated first, then the signals stamped with that bar are submitted in
// order. A trade still open after the last candle is closed at its close.
func (s *Simulator) Run(signals []core.Signal, candles []core.Candle) []core.Trade {
	ordered := make([]core.Signal, len(signals))
	copy(ordered, signals)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	next := 0
	for _, candle := range candles {
		s.OnBar(candle)

		for next < len(ordered) && !ordered[next].Timestamp.After(candle.Time) {
			if ordered[next].Timestamp.Equal(candle.Time) {
				s.Submit(ordered[next])
			}
			next++
		}
	}

	return s.Finish()
}
