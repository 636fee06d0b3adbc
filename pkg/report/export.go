package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
)

// SignalColumns is the header of signal exports. Downstream reports key off
// these names, so they only ever grow at the end.
var SignalColumns = []string{
	"symbol", "timestamp", "direction", "pattern_kind", "pattern", "confidence",
	"entry_price", "stop_loss", "target", "atr_at_entry",
	"filters_passed", "filters_total", "robustness_score", "robustness_momentum",
	"technical_score", "context_score", "context_momentum", "news_sentiment",
	"master_score", "quality_tier",
}

// TradeColumns is the header of trade exports
var TradeColumns = []string{
	"symbol", "entry_date", "entry_price", "stop_loss", "initial_stop", "target",
	"shares", "direction", "pattern", "confidence", "master_score", "status",
	"partial_exit_price", "realized_pnl", "commission", "pnl_pct", "r_multiple",
	"bars_held", "exit_date", "exit_price", "exit_reason",
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WriteSignals writes signals as CSV with SignalColumns
func WriteSignals(w io.Writer, signals []core.Signal) error {
	out := csv.NewWriter(w)
	if err := out.Write(SignalColumns); err != nil {
		return err
	}

	for _, s := range signals {
		record := []string{
			s.Symbol, timestamp(s.Timestamp), string(s.Direction), string(s.Pattern),
			s.PatternOf().Name(), number(s.Confidence),
			number(s.EntryPrice), number(s.StopLoss), number(s.Target), number(s.ATRAtEntry),
			strconv.Itoa(s.FiltersPassed), strconv.Itoa(s.FiltersTotal),
			number(s.RobustnessScore), number(s.RobustnessMomentum),
			number(s.TechnicalScore), number(s.ContextScore), number(s.ContextMomentum),
			number(s.NewsSentiment), number(s.MasterScore), s.QualityTier,
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("signal %s %s: %w", s.Symbol, timestamp(s.Timestamp), err)
		}
	}

	out.Flush()
	return out.Error()
}

// WriteTrades writes trades as CSV with TradeColumns
func WriteTrades(w io.Writer, trades []core.Trade) error {
	out := csv.NewWriter(w)
	if err := out.Write(TradeColumns); err != nil {
		return err
	}

	for _, t := range trades {
		record := []string{
			t.Symbol, timestamp(t.EntryDate), number(t.EntryPrice), number(t.StopLoss),
			number(t.InitialStop), number(t.Target), number(t.Shares), string(t.Direction),
			string(t.Pattern), number(t.Confidence), number(t.MasterScore), string(t.Status),
			number(t.PartialExitPrice), number(t.RealizedPnL), number(t.Commission),
			number(t.PnLPct), number(t.RMultiple), strconv.Itoa(t.BarsHeld),
			timestamp(t.ExitDate), number(t.ExitPrice), string(t.ExitReason),
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("trade %s %s: %w", t.Symbol, timestamp(t.EntryDate), err)
		}
	}

	out.Flush()
	return out.Error()
}
