package indicator

import (
	"math"

	"github.com/raykavin/signalrun/pkg/core"
)

// Periods are the indicator windows
type Periods struct {
	SMAFast   int
	SMASlow   int
	RSI       int
	ATR       int
	ADX       int
	VolumeAvg int
}

// PeriodsFrom extracts the periods from settings
func PeriodsFrom(settings core.IndicatorSettings) Periods {
	return Periods{
		SMAFast:   settings.SMAFastPeriod,
		SMASlow:   settings.SMASlowPeriod,
		RSI:       settings.RSIPeriod,
		ATR:       settings.ATRPeriod,
		ADX:       settings.ADXPeriod,
		VolumeAvg: settings.VolumeAvgPeriod,
	}
}

// Populate fills the indicator columns of df. Columns already supplied by the
// data source are kept untouched; only missing ones are computed. Warm-up bars
// hold NaN.
func Populate(df *core.Dataframe, periods Periods) {
	compute := map[string]func() []float64{
		core.ColumnSMAFast: func() []float64 { return SMA(df.Close, periods.SMAFast) },
		core.ColumnSMASlow: func() []float64 { return SMA(df.Close, periods.SMASlow) },
		core.ColumnRSI:     func() []float64 { return RSI(df.Close, periods.RSI) },
		core.ColumnATR:     func() []float64 { return ATR(df.High, df.Low, df.Close, periods.ATR) },
		core.ColumnADX:     func() []float64 { return ADX(df.High, df.Low, df.Close, periods.ADX) },
		core.ColumnVolumeAvg: func() []float64 {
			return SMA(df.Volume, periods.VolumeAvg)
		},
	}

	for _, column := range core.IndicatorColumns {
		if df.HasColumn(column) {
			continue
		}

		if df.Len() <= lookbackOf(column, periods) {
			df.SetColumn(column, core.NaNSeries(df.Len()))
			continue
		}

		df.SetColumn(column, compute[column]())
	}
}

func lookbackOf(column string, periods Periods) int {
	switch column {
	case core.ColumnSMAFast:
		return periods.SMAFast - 1
	case core.ColumnSMASlow:
		return periods.SMASlow - 1
	case core.ColumnRSI:
		return periods.RSI
	case core.ColumnATR:
		return periods.ATR
	case core.ColumnADX:
		return 2*periods.ADX - 1
	case core.ColumnVolumeAvg:
		return periods.VolumeAvg - 1
	}
	return 0
}

// mask replaces the first n values with NaN; talib leaves them as zeros
func mask(values []float64, n int) []float64 {
	for i := 0; i < n && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}
