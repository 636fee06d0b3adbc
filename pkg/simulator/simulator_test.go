package simulator

import (
	"testing"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/logger/zerolog"
	"github.com/raykavin/signalrun/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC)

func newSimulator(capital float64) (*Simulator, *risk.Governor) {
	settings := core.DefaultSettings().Risk
	governor := risk.NewGovernor(capital, risk.Limits{
		MaxDailyTrades: settings.MaxDailyTrades,
		DailyLossLimit: settings.DailyLossLimit,
	}, time.UTC)
	return New("ACME", settings, governor, zerolog.Discard()), governor
}

// signal builds a signal with a 2 ATR stop and a 3R target
func signal(at time.Time, direction core.Direction, entry, atr float64) core.Signal {
	r := 2 * atr
	return core.Signal{
		Symbol:      "ACME",
		Timestamp:   at,
		Direction:   direction,
		Pattern:     core.TrendCross,
		Confidence:  80,
		EntryPrice:  entry,
		StopLoss:    entry - direction.Sign()*r,
		Target:      entry + direction.Sign()*3*r,
		ATRAtEntry:  atr,
		MasterScore: 100,
	}
}

func bar(at time.Time, open, high, low, closePrice float64) core.Candle {
	return core.Candle{Symbol: "ACME", Time: at, Open: open, High: high, Low: low, Close: closePrice, Volume: 100_000}
}

func minute(n int) time.Time {
	return day.Add(time.Duration(n) * time.Minute)
}

func TestSimulator_StopLoss(t *testing.T) {
	sim, governor := newSimulator(100_000)

	trade, rejection := sim.Submit(signal(minute(0), core.Bullish, 100, 4))
	require.Equal(t, risk.Accepted, rejection)
	assert.InDelta(t, 125, trade.Shares, 1e-9)

	closed, ok := sim.OnBar(bar(minute(1), 99, 100, 91, 93))
	require.True(t, ok)
	assert.Equal(t, core.ExitStopLoss, closed.ExitReason)
	assert.Equal(t, 92.0, closed.ExitPrice)
	assert.Equal(t, core.StatusClosed, closed.Status)
	// 125 * -8 minus commission on 12500 and 11500
	assert.InDelta(t, -1012, closed.RealizedPnL, 1e-9)
	assert.InDelta(t, -1012.0/1000.0, closed.RMultiple, 1e-9)
	assert.InDelta(t, 100_000-1012, governor.Capital(), 1e-9)

	_, open := sim.Open()
	assert.False(t, open)
}

func TestSimulator_Target(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(0), core.Bullish, 100, 4))

	closed, ok := sim.OnBar(bar(minute(1), 101, 125, 100, 124))
	require.True(t, ok)
	assert.Equal(t, core.ExitTarget, closed.ExitReason)
	assert.Equal(t, 124.0, closed.ExitPrice)
	assert.True(t, closed.IsWin())
}

func TestSimulator_ShortTarget(t *testing.T) {
	sim, _ := newSimulator(100_000)
	_, rejection := sim.Submit(signal(minute(0), core.Bearish, 100, 4))
	require.Equal(t, risk.Accepted, rejection)

	closed, ok := sim.OnBar(bar(minute(1), 99, 99, 75, 76))
	require.True(t, ok)
	assert.Equal(t, core.ExitTarget, closed.ExitReason)
	assert.Equal(t, 76.0, closed.ExitPrice)
	assert.Greater(t, closed.RealizedPnL, 0.0)
}

func TestSimulator_PartialThenTrailingStop(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(0), core.Bullish, 100, 4))

	_, closed := sim.OnBar(bar(minute(1), 101, 113, 101, 112))
	require.False(t, closed)

	open, ok := sim.Open()
	require.True(t, ok)
	assert.Equal(t, core.StatusPartial, open.Status)
	assert.Equal(t, 112.0, open.PartialExitPrice)
	assert.InDelta(t, 62.5, open.RemainingShares, 1e-9)
	assert.Equal(t, 105.0, open.StopLoss, "chandelier 113 - 2*4 above breakeven")

	trade, ok := sim.OnBar(bar(minute(2), 110, 110, 104, 106))
	require.True(t, ok)
	assert.Equal(t, core.ExitTrailingStop, trade.ExitReason)
	assert.Equal(t, 105.0, trade.ExitPrice)
	// 62.5*12 + 62.5*5 minus fees on 12500, 7000 and 6562.5
	assert.InDelta(t, 1062.5-13.03125, trade.RealizedPnL, 1e-9)
}

func TestSimulator_StopNeverLoosens(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(0), core.Bullish, 100, 4))

	sim.OnBar(bar(minute(1), 101, 118, 110, 117)) // activates, stop 110
	sim.OnBar(bar(minute(2), 116, 116, 111, 112)) // lower high keeps the stop

	open, ok := sim.Open()
	require.True(t, ok)
	assert.Equal(t, 110.0, open.StopLoss)
}

func TestSimulator_TimeExit(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(0), core.Bullish, 100, 4))

	var (
		closed core.Trade
		ok     bool
	)
	for i := 1; i <= 20 && !ok; i++ {
		closed, ok = sim.OnBar(bar(minute(i), 100, 101, 99, 100.5))
	}

	require.True(t, ok)
	assert.Equal(t, core.ExitTimeExit, closed.ExitReason)
	assert.Equal(t, 20, closed.BarsHeld)
	assert.Equal(t, 100.5, closed.ExitPrice)
}

func TestSimulator_IgnoresEntryBar(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(5), core.Bullish, 100, 4))

	_, closed := sim.OnBar(bar(minute(5), 100, 100, 80, 90))
	assert.False(t, closed)
}

func TestSimulator_OnePositionPerSymbol(t *testing.T) {
	sim, _ := newSimulator(100_000)
	sim.Submit(signal(minute(0), core.Bullish, 100, 4))

	_, rejection := sim.Submit(signal(minute(1), core.Bullish, 100, 4))
	assert.Equal(t, RejectOpenPosition, rejection)
	assert.Equal(t, 1, sim.Diagnostics().RejectedOpenPosition)
}

func TestSimulator_ZeroATRRejected(t *testing.T) {
	sim, governor := newSimulator(100_000)

	s := signal(minute(0), core.Bullish, 100, 4)
	s.ATRAtEntry = 0
	_, rejection := sim.Submit(s)

	assert.Equal(t, RejectSizing, rejection)
	assert.Zero(t, governor.State().TradesToday, "a sizing failure does not use the daily budget")
}

func TestSimulator_MaxFiveTradesPerDay(t *testing.T) {
	sim, _ := newSimulator(100_000)

	var signals []core.Signal
	var candles []core.Candle
	for i := 0; i < 6; i++ {
		at := minute(2 * i)
		signals = append(signals, signal(at, core.Bullish, 100, 4))
		candles = append(candles,
			bar(at, 100, 100.5, 99.5, 100),
			bar(at.Add(time.Minute), 100, 125, 100, 124), // target
		)
	}

	trades := sim.Run(signals, candles)
	assert.Len(t, trades, 5)
	assert.Equal(t, 6, sim.Diagnostics().Submitted)
	assert.Equal(t, 1, sim.Diagnostics().RejectedDailyTrades)
}

func TestSimulator_DailyLossLimitBlocksEntries(t *testing.T) {
	sim, governor := newSimulator(100_000)

	var signals []core.Signal
	var candles []core.Candle
	for i := 0; i < 4; i++ {
		at := minute(2 * i)
		signals = append(signals, signal(at, core.Bullish, 100, 4))
		candles = append(candles,
			bar(at, 100, 100.5, 99.5, 100),
			bar(at.Add(time.Minute), 99, 99, 91, 92), // stop
		)
	}

	trades := sim.Run(signals, candles)
	require.Len(t, trades, 2, "two ~1% losses breach the -2% limit")
	assert.Equal(t, 2, sim.Diagnostics().RejectedDailyLoss)
	assert.True(t, governor.Breached())

	// a perfect signal on the same day is still refused
	_, rejection := sim.Submit(signal(minute(30), core.Bullish, 100, 4))
	assert.Equal(t, risk.RejectDailyLoss, rejection)

	// the next calendar day starts a fresh budget
	_, rejection = sim.Submit(signal(minute(30).Add(24*time.Hour), core.Bullish, 100, 4))
	assert.Equal(t, risk.Accepted, rejection)
}

func TestSimulator_FinishClosesAtLastClose(t *testing.T) {
	sim, _ := newSimulator(100_000)
	trades := sim.Run(
		[]core.Signal{signal(minute(0), core.Bullish, 100, 4)},
		[]core.Candle{
			bar(minute(0), 100, 100.5, 99.5, 100),
			bar(minute(1), 100, 102, 99, 101.5),
		},
	)

	require.Len(t, trades, 1)
	assert.Equal(t, core.ExitTimeExit, trades[0].ExitReason)
	assert.Equal(t, 101.5, trades[0].ExitPrice)
	assert.Equal(t, minute(1), trades[0].ExitDate)
}

func TestSimulator_CloseHandler(t *testing.T) {
	sim, _ := newSimulator(100_000)

	var seen []core.ExitReason
	sim.OnClose(func(trade core.Trade) { seen = append(seen, trade.ExitReason) })

	sim.Submit(signal(minute(0), core.Bullish, 100, 4))
	sim.ForceClose(minute(1), core.ExitDailyLimitForced)

	assert.Equal(t, []core.ExitReason{core.ExitDailyLimitForced}, seen)
}

func TestTrailingStop_Bearish(t *testing.T) {
	ts := NewTrailingStop(core.Bearish, 8)
	assert.Equal(t, 0.0, ts.Update(90, 80), "inactive stop does not move")

	ts.Start(88, 100)
	assert.Equal(t, 93.0, ts.Update(95, 85))
	assert.Equal(t, 93.0, ts.Update(99, 90), "never loosens")
	ts.Stop()
	assert.False(t, ts.Active())
}
