package core

import "time"

// Feeder supplies the candle series of a set of symbols
type Feeder interface {
	Symbols() []string
	Candles(symbol string) []Candle
	CandlesByPeriod(symbol string, start, end time.Time) []Candle
	Dataframes() []*Dataframe
}
