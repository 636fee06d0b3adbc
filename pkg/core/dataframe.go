package core

import (
	"math"
	"time"
)

// Indicator and external context column names. They double as CSV header
// names, so precomputed columns are picked up by the feed as is.
const (
	ColumnSMAFast   = "sma20"
	ColumnSMASlow   = "sma50"
	ColumnRSI       = "rsi"
	ColumnATR       = "atr"
	ColumnADX       = "adx"
	ColumnVolumeAvg = "volume_avg20"

	ColumnContextScore    = "context_score"
	ColumnContextMomentum = "context_momentum"
	ColumnNewsSentiment   = "news_sentiment"
	ColumnFinalScore      = "final_score"
)

// IndicatorColumns lists the columns every snapshot reads
var IndicatorColumns = []string{
	ColumnSMAFast, ColumnSMASlow, ColumnRSI, ColumnATR, ColumnADX, ColumnVolumeAvg,
}

// Dataframe is a time series container for OHLCV and indicator data of one symbol
type Dataframe struct {
	Symbol string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time []time.Time

	// Indicator and context columns, aligned with Time. Undefined values are NaN.
	Metadata map[string]Series[float64]
}

// NewDataframe builds a dataframe from candles. Metadata keys present on any
// candle become columns; bars missing a key get NaN for it.
func NewDataframe(symbol string, candles []Candle) *Dataframe {
	df := &Dataframe{
		Symbol:   symbol,
		Close:    make(Series[float64], len(candles)),
		Open:     make(Series[float64], len(candles)),
		High:     make(Series[float64], len(candles)),
		Low:      make(Series[float64], len(candles)),
		Volume:   make(Series[float64], len(candles)),
		Time:     make([]time.Time, len(candles)),
		Metadata: make(map[string]Series[float64]),
	}

	for i, c := range candles {
		df.Close[i] = c.Close
		df.Open[i] = c.Open
		df.High[i] = c.High
		df.Low[i] = c.Low
		df.Volume[i] = c.Volume
		df.Time[i] = c.Time

		for key, value := range c.Metadata {
			column, ok := df.Metadata[key]
			if !ok {
				column = NaNSeries(len(candles))
				df.Metadata[key] = column
			}
			column[i] = value
		}
	}

	return df
}

// Len returns the number of bars
func (df *Dataframe) Len() int {
	return len(df.Time)
}

// Candle returns the bar at index i
func (df *Dataframe) Candle(i int) Candle {
	return Candle{
		Symbol: df.Symbol,
		Time:   df.Time[i],
		Open:   df.Open[i],
		Close:  df.Close[i],
		Low:    df.Low[i],
		High:   df.High[i],
		Volume: df.Volume[i],
	}
}

// Candles rebuilds the candle list, metadata included
func (df *Dataframe) Candles() []Candle {
	candles := make([]Candle, df.Len())
	for i := range candles {
		candles[i] = df.Candle(i)
		if len(df.Metadata) > 0 {
			candles[i].Metadata = make(map[string]float64, len(df.Metadata))
			for key, column := range df.Metadata {
				if !math.IsNaN(column[i]) {
					candles[i].Metadata[key] = column[i]
				}
			}
		}
	}
	return candles
}

// HasColumn reports whether a metadata column exists with at least one defined value
func (df *Dataframe) HasColumn(name string) bool {
	column, ok := df.Metadata[name]
	if !ok {
		return false
	}
	for _, v := range column {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Column returns the metadata value at index i, NaN when missing
func (df *Dataframe) Column(name string, i int) float64 {
	column, ok := df.Metadata[name]
	if !ok || i < 0 || i >= len(column) {
		return math.NaN()
	}
	return column[i]
}

// SetColumn stores a column, replacing any previous one
func (df *Dataframe) SetColumn(name string, values Series[float64]) {
	if df.Metadata == nil {
		df.Metadata = make(map[string]Series[float64])
	}
	df.Metadata[name] = values
}

// Snapshot returns the indicator values at bar i
func (df *Dataframe) Snapshot(i int) IndicatorSnapshot {
	return IndicatorSnapshot{
		SMA20:       df.Column(ColumnSMAFast, i),
		SMA50:       df.Column(ColumnSMASlow, i),
		RSI:         df.Column(ColumnRSI, i),
		ATR:         df.Column(ColumnATR, i),
		ADX:         df.Column(ColumnADX, i),
		VolumeAvg20: df.Column(ColumnVolumeAvg, i),
	}
}

// Sample returns a subset of the dataframe with the last 'positions' elements
func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions

	if start <= 0 {
		return df
	}

	sample := Dataframe{
		Symbol:   df.Symbol,
		Close:    df.Close.LastValues(positions),
		Open:     df.Open.LastValues(positions),
		High:     df.High.LastValues(positions),
		Low:      df.Low.LastValues(positions),
		Volume:   df.Volume.LastValues(positions),
		Time:     df.Time[start:],
		Metadata: make(map[string]Series[float64]),
	}

	for key := range df.Metadata {
		sample.Metadata[key] = df.Metadata[key].LastValues(positions)
	}

	return sample
}

// IndicatorSnapshot holds the derived indicator values of one bar
type IndicatorSnapshot struct {
	SMA20       float64 `json:"sma20"`
	SMA50       float64 `json:"sma50"`
	RSI         float64 `json:"rsi"`
	ATR         float64 `json:"atr"`
	ADX         float64 `json:"adx"`
	VolumeAvg20 float64 `json:"volume_avg20"`
}

// Defined reports whether every indicator is past its warm-up
func (s IndicatorSnapshot) Defined() bool {
	return Defined(s.SMA20, s.SMA50, s.RSI, s.ATR, s.ADX, s.VolumeAvg20)
}

// VolumeRatio returns volume relative to the 20-bar average, 0 when the average is not positive
func (s IndicatorSnapshot) VolumeRatio(volume float64) float64 {
	if s.VolumeAvg20 <= 0 {
		return 0
	}
	return volume / s.VolumeAvg20
}

// NaNSeries returns a series of the given size filled with NaN
func NaNSeries(size int) Series[float64] {
	values := make(Series[float64], size)
	for i := range values {
		values[i] = math.NaN()
	}
	return values
}
