// Package indicator computes the per-bar indicator columns the signal pipeline reads.
package indicator

import "github.com/markcheno/go-talib"

// SMA calculates Simple Moving Average
func SMA(input []float64, period int) []float64 {
	return mask(talib.Sma(input, period), period-1)
}

// RSI calculates Relative Strength Index
func RSI(input []float64, period int) []float64 {
	return mask(talib.Rsi(input, period), period)
}

// ATR calculates Average True Range
func ATR(high []float64, low []float64, close []float64, period int) []float64 {
	return mask(talib.Atr(high, low, close, period), period)
}

// ADX calculates Average Directional Movement Index
func ADX(high []float64, low []float64, close []float64, period int) []float64 {
	return mask(talib.Adx(high, low, close, period), 2*period-1)
}

// Lookback returns the number of leading bars each indicator leaves undefined
func Lookback(periods Periods) int {
	return max(
		periods.SMASlow-1,
		periods.SMAFast-1,
		periods.RSI,
		periods.ATR,
		2*periods.ADX-1,
		periods.VolumeAvg-1,
	)
}
