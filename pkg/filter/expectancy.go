package filter

import (
	"sync"

	"github.com/raykavin/signalrun/pkg/core"
)

const defaultPriorWinRate = 0.5

type kindStats struct {
	trades int
	wins   int
}

// ExpectancyTracker keeps a per pattern kind win rate, seeded with a prior
// and updated with closed trades. It is safe for concurrent use.
type ExpectancyTracker struct {
	mu     sync.RWMutex
	prior  core.KindValues
	weight float64
	stats  map[core.PatternKind]*kindStats
}

// NewExpectancyTracker creates a tracker from prior win rates and their weight in trades
func NewExpectancyTracker(settings core.ExpectancySettings) *ExpectancyTracker {
	return &ExpectancyTracker{
		prior:  settings.PriorWinRate,
		weight: settings.PriorWeight,
		stats:  make(map[core.PatternKind]*kindStats),
	}
}

// Record adds a closed trade outcome
func (t *ExpectancyTracker) Record(kind core.PatternKind, win bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats, ok := t.stats[kind]
	if !ok {
		stats = &kindStats{}
		t.stats[kind] = stats
	}

	stats.trades++
	if win {
		stats.wins++
	}
}

// RecordTrade adds the outcome of a closed trade
func (t *ExpectancyTracker) RecordTrade(trade core.Trade) {
	t.Record(trade.Pattern, trade.IsWin())
}

// WinRate returns the blended win rate of a kind
func (t *ExpectancyTracker) WinRate(kind core.PatternKind) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	prior := t.prior.Get(kind, defaultPriorWinRate)
	stats, ok := t.stats[kind]
	if !ok || stats.trades == 0 {
		return prior
	}

	return (prior*t.weight + float64(stats.wins)) / (t.weight + float64(stats.trades))
}

// Stats returns the trades and wins recorded for a kind
func (t *ExpectancyTracker) Stats(kind core.PatternKind) (trades, wins int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if stats, ok := t.stats[kind]; ok {
		return stats.trades, stats.wins
	}
	return 0, 0
}
