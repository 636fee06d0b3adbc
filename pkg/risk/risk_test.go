package risk

import (
	"testing"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizer_DollarRiskInvariant(t *testing.T) {
	sizer := NewSizer(core.DefaultSettings().Risk)

	tests := []struct {
		name    string
		atr     float64
		stop    float64
		riskPct float64
	}{
		{name: "high volatility", atr: 4, stop: 92, riskPct: 0.01},
		{name: "medium volatility", atr: 2, stop: 85, riskPct: 0.02},
		{name: "low volatility", atr: 1, stop: 80, riskPct: 0.03},
		{name: "upper medium bound", atr: 3, stop: 85, riskPct: 0.02},
		{name: "lower medium bound", atr: 1.5, stop: 85, riskPct: 0.02},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, capital := range []float64{10_000, 100_000, 2_500_000} {
				position, err := sizer.Size(capital, 100, tc.stop, tc.atr, 100)
				require.NoError(t, err)
				assert.False(t, position.Capped)
				assert.Equal(t, tc.riskPct, position.RiskPct)
				assert.InDelta(t, capital*tc.riskPct, position.Shares*(100-tc.stop), 1e-6)
			}
		})
	}
}

func TestSizer_ShortStopAbove(t *testing.T) {
	position, err := NewSizer(core.DefaultSettings().Risk).Size(100_000, 100, 108, 4, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1_000, position.DollarRisk, 1e-9)
}

func TestSizer_NotionalCap(t *testing.T) {
	position, err := NewSizer(core.DefaultSettings().Risk).Size(100_000, 100, 98, 1, 100)
	require.NoError(t, err)
	assert.True(t, position.Capped)
	assert.InDelta(t, 20_000, position.Notional, 1e-9)
	assert.InDelta(t, 200, position.Shares, 1e-9)
}

func TestSizer_DefaultStopCapsCalmTiers(t *testing.T) {
	sizer := NewSizer(core.DefaultSettings().Risk)
	cases := []struct {
		atr    float64
		capped bool
		risk   float64
	}{
		{atr: 4, capped: false, risk: 1_000},
		{atr: 2, capped: true, risk: 800},
		{atr: 1, capped: true, risk: 400},
	}

	for _, c := range cases {
		position, err := sizer.Size(100_000, 100, 100-2*c.atr, c.atr, 100)
		require.NoError(t, err)
		assert.Equal(t, c.capped, position.Capped, "atr %v", c.atr)
		assert.InDelta(t, c.risk, position.DollarRisk, 1e-9, "atr %v", c.atr)
		assert.LessOrEqual(t, position.Notional, 20_000+1e-9)
	}
}

func TestSizer_Degenerate(t *testing.T) {
	sizer := NewSizer(core.DefaultSettings().Risk)

	_, err := sizer.Size(100_000, 100, 98, 0, 100)
	assert.ErrorIs(t, err, ErrZeroATR)

	_, err = sizer.Size(100_000, 100, 100, 1, 100)
	assert.ErrorIs(t, err, ErrZeroStopDistance)

	_, err = sizer.Size(0, 100, 98, 1, 100)
	assert.ErrorIs(t, err, ErrNonPositiveCapital)

	_, err = sizer.Size(100_000, 0, 98, 1, 0)
	assert.ErrorIs(t, err, ErrNonPositivePrice)
}

func limits() Limits {
	return Limits{MaxDailyTrades: 5, DailyLossLimit: -0.02}
}

func TestGovernor_MaxDailyTrades(t *testing.T) {
	g := NewGovernor(100_000, limits(), time.UTC)
	day := time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		assert.Equal(t, Accepted, g.Admit(day.Add(time.Duration(i)*time.Minute)))
	}
	assert.Equal(t, RejectDailyTrades, g.Admit(day.Add(time.Hour)))
	assert.Equal(t, 5, g.State().TradesToday)

	assert.Equal(t, Accepted, g.Admit(day.Add(24*time.Hour)), "a new date resets the count")
	assert.Equal(t, 1, g.State().TradesToday)
	assert.Equal(t, "2024-03-05", g.State().Date)
}

func TestGovernor_DailyLossLimit(t *testing.T) {
	g := NewGovernor(100_000, limits(), time.UTC)
	day := time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC)

	require.Equal(t, Accepted, g.Admit(day))
	g.RecordClose(day, -1_500)
	require.Equal(t, Accepted, g.Admit(day))
	g.RecordClose(day, -800)

	assert.True(t, g.Breached())
	assert.InDelta(t, -0.023, g.State().CumulativePnLPct, 1e-12)
	assert.Equal(t, RejectDailyLoss, g.Check(day))
	assert.InDelta(t, 97_700, g.Capital(), 1e-9)

	next := day.Add(24 * time.Hour)
	assert.Equal(t, Accepted, g.Check(next))
	assert.InDelta(t, 97_700, g.State().StartCapital, 1e-9)
	assert.False(t, g.Breached())
}

func TestGovernor_DateInLocation(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	g := NewGovernor(100_000, limits(), ist)
	g.Roll(time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)) // 01:30 IST on the 5th
	assert.Equal(t, "2024-03-05", g.State().Date)
}

func TestGovernor_NeverRollsBack(t *testing.T) {
	g := NewGovernor(100_000, limits(), time.UTC)
	day := time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)

	g.Admit(day)
	g.RecordClose(day.Add(-24*time.Hour), -500)

	state := g.State()
	assert.Equal(t, "2024-03-05", state.Date)
	assert.Equal(t, 1, state.TradesToday)
	assert.InDelta(t, -0.005, state.CumulativePnLPct, 1e-12)
}
