// Package synthetic builds deterministic dataframes with explicit indicator
// columns for exercising the pipeline without a warm-up period.
package synthetic

import (
	"math"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
)

// Session is a bar timestamp inside the default liquid window (10:00 IST)
var Session = time.Date(2024, 3, 4, 4, 30, 0, 0, time.UTC)

// Bar describes one bar. Zero High/Low default to Close±0.5, zero Open to Close.
type Bar struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	SMA20     float64
	SMA50     float64
	RSI       float64
	ATR       float64
	ADX       float64
	VolumeAvg float64

	// Context columns; keys left out are missing for the pipeline
	Context map[string]float64
}

// Frame builds a dataframe from bars spaced by step from start
func Frame(symbol string, start time.Time, step time.Duration, bars []Bar) *core.Dataframe {
	candles := make([]core.Candle, len(bars))
	for i, b := range bars {
		open, high, low := b.Open, b.High, b.Low
		if open == 0 {
			open = b.Close
		}
		if high == 0 {
			high = max(b.Close, open) + 0.5
		}
		if low == 0 {
			low = min(b.Close, open) - 0.5
		}

		metadata := map[string]float64{
			core.ColumnSMAFast:   b.SMA20,
			core.ColumnSMASlow:   b.SMA50,
			core.ColumnRSI:       b.RSI,
			core.ColumnATR:       b.ATR,
			core.ColumnADX:       b.ADX,
			core.ColumnVolumeAvg: b.VolumeAvg,
		}
		for key, value := range b.Context {
			metadata[key] = value
		}

		candles[i] = core.Candle{
			Symbol:   symbol,
			Time:     start.Add(time.Duration(i) * step),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    b.Close,
			Volume:   b.Volume,
			Metadata: metadata,
		}
	}

	return core.NewDataframe(symbol, candles)
}

// GoldenCross returns the reference scenario: SMA20 [49..53] crossing
// SMA50 [51..49.5] on bar 2, confirmed on bar 3, ADX 28, RSI 55 flat and
// volume 1.35x its average, since a bar at exactly 1.3x does not count as a
// surge. Bars are 15 minutes apart from Session.
func GoldenCross() []Bar {
	sma20 := []float64{49, 50, 51, 52, 53}
	sma50 := []float64{51, 51, 50.5, 50, 49.5}
	closes := []float64{48.5, 50.5, 52, 53, 54}

	bars := make([]Bar, len(sma20))
	for i := range bars {
		bars[i] = Bar{
			Close:     closes[i],
			Volume:    135_000,
			SMA20:     sma20[i],
			SMA50:     sma50[i],
			RSI:       55,
			ATR:       1,
			ADX:       28,
			VolumeAvg: 100_000,
		}
	}
	return bars
}

// Flat returns n quiet bars at price with defined indicators that trigger nothing
func Flat(n int, price float64) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Close:     price,
			High:      price + 0.2,
			Low:       price - 0.2,
			Volume:    100_000,
			SMA20:     price,
			SMA50:     price,
			RSI:       50,
			ATR:       1,
			ADX:       15,
			VolumeAvg: 100_000,
		}
	}
	return bars
}

// Wave returns n candles of a drifting oscillation with volume bursts and no
// indicator columns, for runs that compute indicators themselves
func Wave(symbol string, start time.Time, step time.Duration, n int) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		x := float64(i)
		price := 100 + 8*math.Sin(x/12) + 3*math.Sin(x/5) + 0.04*x
		volume := 80_000 + 30_000*math.Abs(math.Sin(x/7))
		if i%17 == 0 {
			volume *= 1.8
		}

		candles[i] = core.Candle{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * step),
			Open:   price - 0.3*math.Cos(x/3),
			High:   price + 0.9,
			Low:    price - 0.9,
			Close:  price,
			Volume: volume,
		}
	}
	return candles
}

// Breakouts returns 15 minute candles without indicator columns: a narrow
// zigzag drifting up, broken out once a day. Each breakout is two 1.8x
// volume bars at 10:45 and 11:00 local time (the second is the entry bar),
// after which the zigzag resumes 1.8 higher. With computed indicators ADX
// stays low, so each breakout yields one bullish range-break signal.
// The first day is warm-up.
func Breakouts(symbol string, days int) []core.Candle {
	const barsPerDay = 96

	candles := make([]core.Candle, barsPerDay*(days+1))
	level := 0.0
	for i := range candles {
		base := 100 + 0.02*float64(i) + level
		price, volume := base-0.3, 100_000.0
		if i%2 == 1 {
			price = base + 0.3
		}

		if i >= barsPerDay {
			switch i % barsPerDay {
			case 3:
				price, volume = base+0.9, 180_000
			case 4:
				price, volume = base+1.4, 180_000
				level += 1.8
			}
		}

		candles[i] = core.Candle{
			Symbol: symbol,
			Time:   Session.Add(time.Duration(i) * 15 * time.Minute),
			Open:   price,
			High:   price + 0.2,
			Low:    price - 0.2,
			Close:  price,
			Volume: volume,
		}
	}
	return candles
}
