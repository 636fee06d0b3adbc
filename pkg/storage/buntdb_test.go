package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC)

func TestBuntStorage_Signals(t *testing.T) {
	db, err := FromMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveSignal(core.Signal{Symbol: "BBB", Timestamp: base.Add(time.Hour), Direction: core.Bullish, Pattern: core.Pullback, MasterScore: 80}))
	require.NoError(t, db.SaveSignal(core.Signal{Symbol: "AAA", Timestamp: base, Direction: core.Bearish, Pattern: core.TrendCross, MasterScore: 60}))
	require.NoError(t, db.SaveSignal(core.Signal{Symbol: "AAA", Timestamp: base.Add(2 * time.Hour), Direction: core.Bullish, Pattern: core.RangeBreak, MasterScore: 75}))

	all, err := db.Signals()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, base, all[0].Timestamp)
	assert.Equal(t, "BBB", all[1].Symbol)

	filtered, err := db.Signals(core.SignalsWithSymbol("AAA"), core.SignalsWithMinScore(70))
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, core.RangeBreak, filtered[0].Pattern)

	bearish, err := db.Signals(core.SignalsWithDirection(core.Bearish))
	require.NoError(t, err)
	assert.Len(t, bearish, 1)
}

func TestBuntStorage_Trades(t *testing.T) {
	db, err := FromFile(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveTrade(core.Trade{Symbol: "AAA", ExitDate: base.Add(3 * time.Hour), ExitReason: core.ExitTarget, RealizedPnL: 300}))
	require.NoError(t, db.SaveTrade(core.Trade{Symbol: "BBB", ExitDate: base.Add(time.Hour), ExitReason: core.ExitStopLoss, RealizedPnL: -100}))

	trades, err := db.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "BBB", trades[0].Symbol)
	assert.Equal(t, 300.0, trades[1].RealizedPnL)

	stops, err := db.Trades(core.TradesWithExitReason(core.ExitStopLoss, core.ExitTrailingStop))
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, -100.0, stops[0].RealizedPnL)

	signals, err := db.Signals()
	require.NoError(t, err)
	assert.Empty(t, signals)
}
