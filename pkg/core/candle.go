package core

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Candle represents one OHLCV bar of a tradable instrument
type Candle struct {
	Symbol string
	Time   time.Time
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume float64

	// Additional columns from CSV inputs (external context, precomputed indicators)
	Metadata map[string]float64
}

// GetSymbol returns the instrument identifier for the candle
func (c Candle) GetSymbol() string { return c.Symbol }

// GetTime returns the timestamp of the candle
func (c Candle) GetTime() time.Time { return c.Time }

// Empty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool { return c.Symbol == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0 }

// Value returns a metadata column and whether it is present and finite
func (c Candle) Value(column string) (float64, bool) {
	v, ok := c.Metadata[column]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// ValidateCandles rejects input that cannot be replayed: timestamps must be
// strictly increasing and prices must not be negative. Gaps are tolerated.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}

	for i, c := range candles {
		if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 {
			return fmt.Errorf("%w: bar %d at %s", ErrNegativePrice, i, c.Time.Format(time.RFC3339))
		}
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s", ErrNonMonotonicTime, i, c.Time.Format(time.RFC3339))
		}
	}

	return nil
}
