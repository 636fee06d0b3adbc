// Package report summarizes and exports simulation output.
package report

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// TradeSummary collects performance statistics of closed trades
type TradeSummary struct {
	Symbol      string
	Wins        []float64 // net pnl of winning trades
	WinsPct     []float64
	Losses      []float64 // net pnl of losing and flat trades
	LossesPct   []float64
	RMultiples  []float64
	Commission  float64
	Volume      float64 // entry notional
	ExitReasons map[core.ExitReason]int
	Patterns    map[core.PatternKind]int
}

// NewTradeSummary summarizes closed trades in the given order
func NewTradeSummary(symbol string, trades []core.Trade) TradeSummary {
	summary := TradeSummary{
		Symbol:      symbol,
		ExitReasons: make(map[core.ExitReason]int),
		Patterns:    make(map[core.PatternKind]int),
	}

	for _, trade := range trades {
		if trade.Status != core.StatusClosed {
			continue
		}
		summary.Add(trade)
	}

	return summary
}

// Add records one closed trade
func (s *TradeSummary) Add(trade core.Trade) {
	if trade.IsWin() {
		s.Wins = append(s.Wins, trade.RealizedPnL)
		s.WinsPct = append(s.WinsPct, trade.PnLPct)
	} else {
		s.Losses = append(s.Losses, trade.RealizedPnL)
		s.LossesPct = append(s.LossesPct, trade.PnLPct)
	}

	s.RMultiples = append(s.RMultiples, trade.RMultiple)
	s.Commission += trade.Commission
	s.Volume += trade.Shares * trade.EntryPrice
	s.ExitReasons[trade.ExitReason]++
	s.Patterns[trade.Pattern]++
}

// Trades returns the number of trades
func (s TradeSummary) Trades() int {
	return len(s.Wins) + len(s.Losses)
}

// Returns returns the percentage returns of every trade, wins first
func (s TradeSummary) Returns() []float64 {
	return append(append([]float64{}, s.WinsPct...), s.LossesPct...)
}

// Profit returns the total net profit
func (s TradeSummary) Profit() float64 {
	return lo.Sum(s.Wins) + lo.Sum(s.Losses)
}

// SQN is the system quality number: sqrt(n) * mean / stddev of trade pnl
func (s TradeSummary) SQN() float64 {
	pnl := append(append([]float64{}, s.Wins...), s.Losses...)
	if len(pnl) < 2 {
		return 0
	}

	mean, stdDev := stat.MeanStdDev(pnl, nil)
	if stdDev == 0 {
		return 0
	}

	return math.Sqrt(float64(len(pnl))) * mean / stdDev
}

// Payoff is the average winning return over the average losing return
func (s TradeSummary) Payoff() float64 {
	if len(s.WinsPct) == 0 || len(s.LossesPct) == 0 {
		return 0
	}

	avgLoss := stat.Mean(s.LossesPct, nil)
	if avgLoss == 0 {
		return 0
	}

	return stat.Mean(s.WinsPct, nil) / math.Abs(avgLoss)
}

// ProfitFactor is gross profit over gross loss
func (s TradeSummary) ProfitFactor() float64 {
	grossLoss := lo.Sum(s.Losses)
	if grossLoss == 0 {
		return 0
	}
	return lo.Sum(s.Wins) / math.Abs(grossLoss)
}

// WinPercentage returns the share of winning trades, 0..100
func (s TradeSummary) WinPercentage() float64 {
	if s.Trades() == 0 {
		return 0
	}
	return float64(len(s.Wins)) / float64(s.Trades()) * 100
}

// AverageR returns the mean R multiple
func (s TradeSummary) AverageR() float64 {
	if len(s.RMultiples) == 0 {
		return 0
	}
	return stat.Mean(s.RMultiples, nil)
}

// String renders the summary as a two column table
func (s TradeSummary) String() string {
	out := &strings.Builder{}
	table := tablewriter.NewWriter(out)

	rows := [][]string{
		{"Symbol", s.Symbol},
		{"Trades", strconv.Itoa(s.Trades())},
		{"Win", strconv.Itoa(len(s.Wins))},
		{"Loss", strconv.Itoa(len(s.Losses))},
		{"% Win", fmt.Sprintf("%.1f", s.WinPercentage())},
		{"Payoff", fmt.Sprintf("%.2f", s.Payoff())},
		{"Pr.Fact", fmt.Sprintf("%.2f", s.ProfitFactor())},
		{"SQN", fmt.Sprintf("%.2f", s.SQN())},
		{"Avg R", fmt.Sprintf("%.2f", s.AverageR())},
		{"Profit", fmt.Sprintf("%.2f", s.Profit())},
		{"Fees", fmt.Sprintf("%.2f", s.Commission)},
		{"Volume", fmt.Sprintf("%.2f", s.Volume)},
	}

	for _, reason := range core.ExitReasons {
		if count := s.ExitReasons[reason]; count > 0 {
			rows = append(rows, []string{"Exit " + string(reason), strconv.Itoa(count)})
		}
	}

	table.AppendBulk(rows)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	return out.String()
}

// SaveReturns writes one percentage return per line
func (s TradeSummary) SaveReturns(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, value := range s.Returns() {
		if _, err := fmt.Fprintf(file, "%.4f\n", value); err != nil {
			return err
		}
	}

	return nil
}
