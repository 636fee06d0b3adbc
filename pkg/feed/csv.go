// Package feed loads candle series, with optional indicator and context
// columns, from CSV files.
package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"
)

var baseColumns = []string{"time", "open", "close", "low", "high", "volume"}

// timeLayouts are tried in order for non numeric time values
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

// SymbolFeed describes one CSV file. Timestamps without a zone are read in
// Location, UTC when nil.
type SymbolFeed struct {
	Symbol    string
	File      string
	Timeframe string
	Location  *time.Location
}

// CSVFeed holds candles of several symbols resampled to one timeframe
type CSVFeed struct {
	Timeframe string
	symbols   []string
	candles   map[string][]core.Candle
}

// NewCSVFeed reads every file and resamples it to targetTimeframe
func NewCSVFeed(targetTimeframe string, feeds ...SymbolFeed) (*CSVFeed, error) {
	f := &CSVFeed{
		Timeframe: targetTimeframe,
		candles:   make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		if _, exists := f.candles[feed.Symbol]; exists {
			return nil, fmt.Errorf("feed: symbol %s loaded twice", feed.Symbol)
		}

		candles, err := ReadCandles(feed.File, feed.Symbol, feed.Location)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Symbol, err)
		}

		resampled, err := Resample(candles, feed.Timeframe, targetTimeframe)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Symbol, err)
		}

		f.symbols = append(f.symbols, feed.Symbol)
		f.candles[feed.Symbol] = resampled
	}

	return f, nil
}

// Symbols returns the loaded symbols in load order
func (f *CSVFeed) Symbols() []string {
	return f.symbols
}

// Candles returns the candles of a symbol
func (f *CSVFeed) Candles(symbol string) []core.Candle {
	return f.candles[symbol]
}

// CandlesByPeriod returns the candles of a symbol within [start, end]
func (f *CSVFeed) CandlesByPeriod(symbol string, start, end time.Time) []core.Candle {
	return lo.Filter(f.candles[symbol], func(c core.Candle, _ int) bool {
		return !c.Time.Before(start) && !c.Time.After(end)
	})
}

// Dataframes builds one dataframe per symbol in load order
func (f *CSVFeed) Dataframes() []*core.Dataframe {
	frames := make([]*core.Dataframe, 0, len(f.symbols))
	for _, symbol := range f.symbols {
		frames = append(frames, core.NewDataframe(symbol, f.candles[symbol]))
	}
	return frames
}

// Limit keeps only the candles within duration of each symbol's last candle
func (f *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for symbol, candles := range f.candles {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		f.candles[symbol] = lo.Filter(candles, func(c core.Candle, _ int) bool {
			return c.Time.After(start)
		})
	}
	return f
}

// ReadCandles parses a CSV file. Without a header row the columns are
// time,open,close,low,high,volume. With a header, any extra column becomes
// candle metadata; empty cells are left out so they read as missing.
// Times are returned in location (UTC when nil), which is also the zone of
// timestamps written without one.
func ReadCandles(path, symbol string, location *time.Location) ([]core.Candle, error) {
	if location == nil {
		location = time.UTC
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, core.ErrEmptySeries
	}

	columns, extra, hasHeader := parseHeader(lines[0], location)
	if hasHeader {
		lines = lines[1:]
	}

	candles := make([]core.Candle, 0, len(lines))
	for n, line := range lines {
		candle, err := parseLine(line, columns, extra, symbol, location)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func parseHeader(header []string, location *time.Location) (columns map[string]int, extra []string, hasHeader bool) {
	columns = make(map[string]int, len(header))

	if _, err := parseTime(header[0], location); err == nil {
		for i, name := range baseColumns {
			columns[name] = i
		}
		return columns, nil, false
	}

	for i, name := range header {
		name = strings.TrimSpace(strings.ToLower(name))
		columns[name] = i
		if !lo.Contains(baseColumns, name) {
			extra = append(extra, name)
		}
	}

	return columns, extra, true
}

func parseLine(line []string, columns map[string]int, extra []string, symbol string, location *time.Location) (core.Candle, error) {
	field := func(name string) (string, error) {
		i, ok := columns[name]
		if !ok || i >= len(line) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(line[i]), nil
	}

	raw, err := field("time")
	if err != nil {
		return core.Candle{}, err
	}
	ts, err := parseTime(raw, location)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{Symbol: symbol, Time: ts}
	for name, target := range map[string]*float64{
		"open": &candle.Open, "close": &candle.Close, "low": &candle.Low,
		"high": &candle.High, "volume": &candle.Volume,
	} {
		raw, err := field(name)
		if err != nil {
			return core.Candle{}, err
		}
		if *target, err = strconv.ParseFloat(raw, 64); err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	for _, name := range extra {
		raw, err := field(name)
		if err != nil || raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", name, err)
		}
		if candle.Metadata == nil {
			candle.Metadata = make(map[string]float64, len(extra))
		}
		candle.Metadata[name] = value
	}

	return candle, nil
}

// parseTime accepts unix seconds or one of timeLayouts. Layouts without a
// zone are wall clock times in location.
func parseTime(value string, location *time.Location) (time.Time, error) {
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(seconds, 0).In(location), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, location); err == nil {
			return t.In(location), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q", value)
}

// Resample aggregates candles from one timeframe into a larger one. Periods
// are aligned to the wall clock of the candles' location. Only complete
// periods are kept, so a period with a missing bar is dropped; metadata comes
// from the period's last candle.
func Resample(candles []core.Candle, from, to string) ([]core.Candle, error) {
	if from == to || len(candles) == 0 {
		return candles, nil
	}

	fromDuration, err := str2duration.ParseDuration(from)
	if err != nil {
		return nil, fmt.Errorf("timeframe %q: %w", from, err)
	}
	toDuration, err := str2duration.ParseDuration(to)
	if err != nil {
		return nil, fmt.Errorf("timeframe %q: %w", to, err)
	}
	if toDuration < fromDuration || toDuration%fromDuration != 0 {
		return nil, fmt.Errorf("cannot resample %s into %s", from, to)
	}

	var (
		out     = make([]core.Candle, 0, len(candles)*int(fromDuration)/int(toDuration)+1)
		perBar  = int(toDuration / fromDuration)
		current core.Candle
		count   int
	)

	for _, candle := range candles {
		period := periodStart(candle.Time, toDuration)
		if count > 0 && !period.Equal(current.Time) {
			count = 0 // the open period lost a bar
		}

		if count == 0 {
			if !period.Equal(candle.Time) {
				continue // wait for the next period boundary
			}
			current = candle
		} else {
			current.High = max(current.High, candle.High)
			current.Low = min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
			current.Metadata = candle.Metadata
		}
		count++

		if next := candle.Time.Add(fromDuration); periodStart(next, toDuration).Equal(next) {
			if count == perBar {
				out = append(out, current)
			}
			count = 0
		}
	}

	return out, nil
}

// periodStart truncates t to a multiple of d on the wall clock of t's location
func periodStart(t time.Time, d time.Duration) time.Time {
	_, offset := t.Zone()
	shift := time.Duration(offset) * time.Second
	return t.Add(shift).Truncate(d).Add(-shift)
}

var _ core.Feeder = (*CSVFeed)(nil)
