package core

import (
	"fmt"
	"time"
	_ "time/tzdata" // session windows resolve without a system zoneinfo database

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Settings holds every tunable of the signal and simulation pipeline.
// Thresholds are empirical and meant to be recalibrated per instrument.
type Settings struct {
	Capital    float64            `mapstructure:"capital" default:"100000" validate:"gt=0"`
	Indicators IndicatorSettings  `mapstructure:"indicators"`
	Patterns   PatternSettings    `mapstructure:"patterns"`
	Filters    FilterSettings     `mapstructure:"filters"`
	Expectancy ExpectancySettings `mapstructure:"expectancy"`
	Score      ScoreSettings      `mapstructure:"score"`
	Risk       RiskSettings       `mapstructure:"risk"`
}

// IndicatorSettings holds indicator periods
type IndicatorSettings struct {
	SMAFastPeriod   int `mapstructure:"sma_fast_period" default:"20" validate:"gt=1"`
	SMASlowPeriod   int `mapstructure:"sma_slow_period" default:"50" validate:"gtfield=SMAFastPeriod"`
	RSIPeriod       int `mapstructure:"rsi_period" default:"14" validate:"gt=1"`
	ATRPeriod       int `mapstructure:"atr_period" default:"14" validate:"gt=0"`
	ADXPeriod       int `mapstructure:"adx_period" default:"14" validate:"gt=1"`
	VolumeAvgPeriod int `mapstructure:"volume_avg_period" default:"20" validate:"gt=0"`
}

// PatternSettings holds detection thresholds
type PatternSettings struct {
	TrendCrossVolume    float64 `mapstructure:"trend_cross_volume" default:"1.3" validate:"gt=0"`
	TrendCrossADX       float64 `mapstructure:"trend_cross_adx" default:"22" validate:"gte=0"`
	PullbackProximity   float64 `mapstructure:"pullback_proximity" default:"0.02" validate:"gt=0"`
	PullbackRSILow      float64 `mapstructure:"pullback_rsi_low" default:"35" validate:"gte=0,lte=100"`
	PullbackRSIHigh     float64 `mapstructure:"pullback_rsi_high" default:"65" validate:"gtefield=PullbackRSILow,lte=100"`
	PullbackVolumeBull  float64 `mapstructure:"pullback_volume_bull" default:"1.2" validate:"gt=0"`
	PullbackVolumeBear  float64 `mapstructure:"pullback_volume_bear" default:"1.1" validate:"gt=0"`
	PullbackADX         float64 `mapstructure:"pullback_adx" default:"18" validate:"gte=0"`
	RangeLookback       int     `mapstructure:"range_lookback" default:"5" validate:"gt=1"`
	RangeMaxWidth       float64 `mapstructure:"range_max_width" default:"0.05" validate:"gt=0"`
	RangeVolume         float64 `mapstructure:"range_volume" default:"1.5" validate:"gt=0"`
	BreakoutRSILow      float64 `mapstructure:"breakout_rsi_low" default:"45" validate:"gte=0,lte=100"`
	BreakoutRSIHigh     float64 `mapstructure:"breakout_rsi_high" default:"75" validate:"gtefield=BreakoutRSILow,lte=100"`
	BreakdownRSILow     float64 `mapstructure:"breakdown_rsi_low" default:"25" validate:"gte=0,lte=100"`
	BreakdownRSIHigh    float64 `mapstructure:"breakdown_rsi_high" default:"55" validate:"gtefield=BreakdownRSILow,lte=100"`
	BreakoutExhaustion  float64 `mapstructure:"breakout_exhaustion" default:"70" validate:"gte=0,lte=100"`
	BreakdownExhaustion float64 `mapstructure:"breakdown_exhaustion" default:"30" validate:"gte=0,lte=100"`

	BaseConfidence KindValues `mapstructure:"base_confidence" default:"{\"trend_cross\":75,\"pullback\":70,\"range_break\":80}"`
}

// FilterSettings holds robustness filter thresholds
type FilterSettings struct {
	TrendingADX       float64         `mapstructure:"trending_adx" default:"25" validate:"gte=0"`
	RangingADX        float64         `mapstructure:"ranging_adx" default:"20" validate:"gte=0,ltefield=TrendingADX"`
	NeutralConviction float64         `mapstructure:"neutral_conviction" default:"0.9" validate:"gt=0,lte=1"`
	VolumeMultipliers KindValues      `mapstructure:"volume_multipliers" default:"{\"trend_cross\":1.3,\"pullback\":1.2,\"range_break\":1.5}"`
	Session           SessionSettings `mapstructure:"session"`
	MinAverageVolume  float64         `mapstructure:"min_average_volume" default:"50000" validate:"gte=0"`
	MaxVolumeSpike    float64         `mapstructure:"max_volume_spike" default:"2.5" validate:"gt=0"`
	MinWinRate        float64         `mapstructure:"min_win_rate" default:"0.5" validate:"gte=0,lte=1"`
	Disabled          []string        `mapstructure:"disabled" default:"[]"`
}

// SessionSettings is the liquid window of the trading session in local time
type SessionSettings struct {
	Enabled  bool   `mapstructure:"enabled" default:"true"`
	Timezone string `mapstructure:"timezone" default:"Asia/Kolkata" validate:"required"`
	Start    string `mapstructure:"start" default:"09:15" validate:"required"`
	End      string `mapstructure:"end" default:"15:00" validate:"required"`
}

// ExpectancySettings seeds the per-pattern win-rate tracker
type ExpectancySettings struct {
	PriorWinRate KindValues `mapstructure:"prior_win_rate" default:"{\"trend_cross\":0.55,\"pullback\":0.53,\"range_break\":0.56}"`
	PriorWeight  float64    `mapstructure:"prior_weight" default:"20" validate:"gte=0"`
}

// ScoreSettings holds master score weights and quality tiers
type ScoreSettings struct {
	Weights      ScoreWeights `mapstructure:"weights"`
	QualityTiers []float64    `mapstructure:"quality_tiers" default:"[80,75,70,65]" validate:"dive,gte=0,lte=100"`
}

// ScoreWeights are the weights of the six master score dimensions
type ScoreWeights struct {
	Confidence float64 `mapstructure:"confidence" default:"0.25" validate:"gte=0"`
	Technical  float64 `mapstructure:"technical" default:"0.25" validate:"gte=0"`
	Robustness float64 `mapstructure:"robustness" default:"0.20" validate:"gte=0"`
	Context    float64 `mapstructure:"context" default:"0.15" validate:"gte=0"`
	Momentum   float64 `mapstructure:"momentum" default:"0.10" validate:"gte=0"`
	News       float64 `mapstructure:"news" default:"0.05" validate:"gte=0"`
}

// Sum returns the total weight
func (w ScoreWeights) Sum() float64 {
	return w.Confidence + w.Technical + w.Robustness + w.Context + w.Momentum + w.News
}

// RiskSettings holds sizing, exit and daily governance parameters
type RiskSettings struct {
	RiskPerTradeTiers     RiskTiers `mapstructure:"risk_per_trade_tiers"`
	VolatilityHigh        float64   `mapstructure:"volatility_high" default:"0.03" validate:"gt=0"`
	VolatilityLow         float64   `mapstructure:"volatility_low" default:"0.015" validate:"gt=0,ltefield=VolatilityHigh"`
	MaxPositionPct        float64   `mapstructure:"max_position_pct" default:"0.2" validate:"gt=0,lte=1"`
	DailyLossLimit        float64   `mapstructure:"daily_loss_limit" default:"-0.02" validate:"lt=0"`
	MaxDailyTrades        int       `mapstructure:"max_daily_trades" default:"5" validate:"gt=0"`
	StopATRMultiple       float64   `mapstructure:"stop_atr_multiple" default:"2" validate:"gt=0"`
	TargetRMultiple       float64   `mapstructure:"target_r_multiple" default:"3" validate:"gt=0"`
	TrailingActivationR   float64   `mapstructure:"trailing_activation_r" default:"1.5" validate:"gt=0"`
	PartialExitFraction   float64   `mapstructure:"partial_exit_fraction" default:"0.5" validate:"gte=0,lt=1"`
	ChandelierATRMultiple float64   `mapstructure:"chandelier_atr_multiple" default:"2" validate:"gt=0"`
	TimeExitBars          int       `mapstructure:"time_exit_bars" default:"20" validate:"gt=0"`
	CommissionRate        float64   `mapstructure:"commission_rate" default:"0.0005" validate:"gte=0,lt=1"`
}

// RiskTiers is the fraction of capital risked per volatility tier
type RiskTiers struct {
	High   float64 `mapstructure:"high" default:"0.01" validate:"gt=0,lt=1"`
	Medium float64 `mapstructure:"medium" default:"0.02" validate:"gt=0,lt=1"`
	Low    float64 `mapstructure:"low" default:"0.03" validate:"gt=0,lt=1"`
}

// KindValues maps pattern kinds to a number
type KindValues map[PatternKind]float64

// Get returns the value of a kind, or fallback when unset
func (v KindValues) Get(kind PatternKind, fallback float64) float64 {
	if value, ok := v[kind]; ok {
		return value
	}
	return fallback
}

// DefaultSettings returns the settings with every default applied
func DefaultSettings() Settings {
	var settings Settings
	if err := defaults.Set(&settings); err != nil {
		// defaults are static, a failure here is a programming error
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}
	return settings
}

// Validate checks ranges and cross-field constraints
func (s Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if sum := s.Score.Weights.Sum(); sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("invalid settings: score weights must sum to 1, got %.4f", sum)
	}

	if _, err := s.Filters.Session.Window(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	for kind := range s.Filters.VolumeMultipliers {
		if err := kind.Validate(); err != nil {
			return fmt.Errorf("invalid settings: volume_multipliers: %w", err)
		}
	}

	return nil
}

// SessionWindow is a parsed session window
type SessionWindow struct {
	Location *time.Location
	Start    time.Duration
	End      time.Duration
}

// Contains reports whether the local time of day of t falls inside the window, bounds included
func (w SessionWindow) Contains(t time.Time) bool {
	local := t.In(w.Location)
	offset := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return offset >= w.Start && offset <= w.End
}

// Window parses the timezone and the HH:MM bounds
func (s SessionSettings) Window() (SessionWindow, error) {
	location, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session timezone %q: %w", s.Timezone, err)
	}

	start, err := parseClock(s.Start)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session start: %w", err)
	}

	end, err := parseClock(s.End)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session end: %w", err)
	}

	if end < start {
		return SessionWindow{}, fmt.Errorf("session end %s before start %s", s.End, s.Start)
	}

	return SessionWindow{Location: location, Start: start, End: end}, nil
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
