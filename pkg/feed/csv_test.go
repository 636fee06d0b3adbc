package feed

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/filter"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCandles_HeaderWithContext(t *testing.T) {
	path := writeFile(t, `time,open,close,low,high,volume,context_score,news_sentiment
2024-03-04 04:00:00,100,101,99.5,101.5,120000,3.5,
2024-03-04 04:15:00,101,100.5,100,101.2,90000,,0.4
`)

	candles, err := ReadCandles(path, "ACME", nil)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "ACME", candles[0].Symbol)
	assert.Equal(t, time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 3.5, candles[0].Metadata[core.ColumnContextScore])
	_, ok := candles[0].Metadata[core.ColumnNewsSentiment]
	assert.False(t, ok, "empty cells are missing values")

	df := core.NewDataframe("ACME", candles)
	assert.True(t, math.IsNaN(df.Column(core.ColumnContextScore, 1)))
	assert.Equal(t, 0.4, df.Column(core.ColumnNewsSentiment, 1))
}

func TestReadCandles_NoHeader(t *testing.T) {
	path := writeFile(t, "1709524800,100,101,99,102,1000\n1709525700,101,102,100,103,1100\n")

	candles, err := ReadCandles(path, "ACME", nil)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 102.0, candles[0].High)
	assert.Nil(t, candles[0].Metadata)
}

func TestReadCandles_BadValue(t *testing.T) {
	path := writeFile(t, "time,open,close,low,high,volume\n2024-03-04,abc,1,1,1,1\n")
	_, err := ReadCandles(path, "ACME", nil)
	assert.Error(t, err)
}

func TestReadCandles_LocalWallClock(t *testing.T) {
	window, err := core.DefaultSettings().Filters.Session.Window()
	require.NoError(t, err)

	path := writeFile(t, `time,open,close,low,high,volume
2024-03-04 10:30:00,100,101,99,102,1000
2024-03-04T15:00:00+05:30,101,102,100,103,1000
1709526600,102,103,101,104,1000
`)

	candles, err := ReadCandles(path, "ACME", window.Location)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.True(t, candles[0].Time.Equal(time.Date(2024, 3, 4, 10, 30, 0, 0, window.Location)))
	assert.True(t, candles[0].Time.Equal(time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC)))
	assert.True(t, candles[1].Time.Equal(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "10:00", candles[2].Time.Format("15:04"))

	session := filter.TimeOfDay{Enabled: true, Window: window}
	for _, candle := range candles {
		assert.True(t, session.Evaluate(filter.Context{Time: candle.Time}), candle.Time.String())
	}

	utc, err := ReadCandles(path, "ACME", nil)
	require.NoError(t, err)
	assert.False(t, session.Evaluate(filter.Context{Time: utc[0].Time}), "10:30 UTC is 16:00 IST")
}

func minuteCandles(n int) []core.Candle {
	start := time.Date(2024, 3, 4, 3, 59, 0, 0, time.UTC)
	candles := make([]core.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = core.Candle{
			Symbol: "ACME", Time: start.Add(time.Duration(i) * time.Minute),
			Open: price, Close: price + 0.5, Low: price - 1, High: price + 1, Volume: 10,
		}
	}
	return candles
}

func TestResample(t *testing.T) {
	// 03:59 is skipped, 04:00-04:04 and 04:05-04:09 are complete, 04:10-04:11 is partial
	out, err := Resample(minuteCandles(13), "1m", "5m")
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 101.0, first.Open)
	assert.Equal(t, 105.5, first.Close)
	assert.Equal(t, 100.0, first.Low)
	assert.Equal(t, 106.0, first.High)
	assert.Equal(t, 50.0, first.Volume)

	_, err = Resample(minuteCandles(3), "5m", "1m")
	assert.Error(t, err)
}

func quarterHours(start time.Time, skip ...int) []core.Candle {
	var candles []core.Candle
	for i := 0; i < 8; i++ {
		if lo.Contains(skip, i) {
			continue
		}
		price := 100 + float64(i)
		candles = append(candles, core.Candle{
			Symbol: "ACME", Time: start.Add(time.Duration(i) * 15 * time.Minute),
			Open: price, Close: price + 0.5, Low: price - 1, High: price + 1, Volume: 10,
		})
	}
	return candles
}

func TestResample_DropsPeriodWithGap(t *testing.T) {
	// 10:00-10:45 misses 10:45, 11:00-11:45 is complete
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	out, err := Resample(quarterHours(start, 3), "15m", "1h")
	require.NoError(t, err)
	require.Len(t, out, 1)

	hour := out[0]
	assert.Equal(t, start.Add(time.Hour), hour.Time)
	assert.Equal(t, 104.0, hour.Open)
	assert.Equal(t, 107.5, hour.Close)
	assert.Equal(t, 103.0, hour.Low)
	assert.Equal(t, 108.0, hour.High)
	assert.Equal(t, 40.0, hour.Volume)
}

func TestResample_LocalHours(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, ist)
	out, err := Resample(quarterHours(start), "15m", "1h")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "09:00", out[0].Time.In(ist).Format("15:04"))
	assert.Equal(t, "10:00", out[1].Time.In(ist).Format("15:04"))
	assert.Equal(t, 103.5, out[0].Close)
}

func TestCSVFeed_LimitAndFrames(t *testing.T) {
	path := writeFile(t, `time,open,close,low,high,volume
2024-03-04 04:00:00,100,101,99,102,1000
2024-03-04 04:15:00,101,102,100,103,1000
2024-03-04 04:30:00,102,103,101,104,1000
2024-03-04 04:45:00,103,104,102,105,1000
`)

	f, err := NewCSVFeed("15m", SymbolFeed{Symbol: "ACME", File: path, Timeframe: "15m"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, f.Symbols())

	period := f.CandlesByPeriod("ACME",
		time.Date(2024, 3, 4, 4, 15, 0, 0, time.UTC), time.Date(2024, 3, 4, 4, 30, 0, 0, time.UTC))
	assert.Len(t, period, 2)

	f.Limit(30 * time.Minute)
	frames := f.Dataframes()
	require.Len(t, frames, 1)
	assert.Equal(t, 2, frames[0].Len())

	_, err = NewCSVFeed("15m",
		SymbolFeed{Symbol: "ACME", File: path, Timeframe: "15m"},
		SymbolFeed{Symbol: "ACME", File: path, Timeframe: "15m"})
	assert.Error(t, err)
}
