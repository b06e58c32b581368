package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskPlanner/internal/domain"
)

func fixedPolicy(riskCents int64) domain.RiskPolicy {
	return domain.RiskPolicy{
		Name:       "test",
		BaseTrade:  domain.BaseTrade{RiskCents: riskCents},
		RiskSizing: domain.RiskSizing{Kind: domain.SizingFixed},
		GainMode: domain.GainMode{
			Kind:         domain.GainSingleTarget,
			SingleTarget: &domain.SingleTargetGain{DailyTargetCents: 100000},
		},
		CascadingLimits: domain.CascadingLimits{
			DailyLossCents:   100000,
			MonthlyLossCents: 500000,
			Mode:             domain.LimitAbsolute,
		},
	}
}

func TestResolve_RiskSizing(t *testing.T) {
	tests := []struct {
		name         string
		sizing       domain.RiskSizing
		balanceCents int64
		wantRisk     int64
	}{
		{
			name:         "fixed mode uses stored base risk",
			sizing:       domain.RiskSizing{Kind: domain.SizingFixed},
			balanceCents: 1_000_000,
			wantRisk:     50000,
		},
		{
			name: "percent of balance scales with balance",
			sizing: domain.RiskSizing{
				Kind:             domain.SizingPercentOfBalance,
				PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 2},
			},
			balanceCents: 1_000_000,
			wantRisk:     20000,
		},
		{
			name: "percent of balance rounds to nearest cent",
			sizing: domain.RiskSizing{
				Kind:             domain.SizingPercentOfBalance,
				PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 0.333},
			},
			balanceCents: 1_000_000,
			wantRisk:     3330,
		},
		{
			name: "fixed ratio uses per-contract constant",
			sizing: domain.RiskSizing{
				Kind:       domain.SizingFixedRatio,
				FixedRatio: &domain.FixedRatioSizing{BaseContractRiskCents: 12500},
			},
			balanceCents: 1_000_000,
			wantRisk:     12500,
		},
		{
			name: "kelly falls back to stored base risk",
			sizing: domain.RiskSizing{
				Kind:  domain.SizingKellyFractional,
				Kelly: &domain.KellyFractionalSizing{Fraction: 0.5, WinRate: 0.55, Payoff: 2},
			},
			balanceCents: 1_000_000,
			wantRisk:     50000,
		},
		{
			name:         "unrecognized mode falls back to stored base risk",
			sizing:       domain.RiskSizing{Kind: "martingale"},
			balanceCents: 1_000_000,
			wantRisk:     50000,
		},
		{
			name: "percent of balance without payload falls back",
			sizing: domain.RiskSizing{
				Kind: domain.SizingPercentOfBalance,
			},
			balanceCents: 1_000_000,
			wantRisk:     50000,
		},
		{
			name: "non-positive derived risk falls back",
			sizing: domain.RiskSizing{
				Kind:             domain.SizingPercentOfBalance,
				PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 0},
			},
			balanceCents: 1_000_000,
			wantRisk:     50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := fixedPolicy(50000)
			policy.RiskSizing = tt.sizing
			eff := Resolve(policy, tt.balanceCents)
			assert.Equal(t, tt.wantRisk, eff.RiskCents)
		})
	}
}

func TestResolve_ZeroBalanceUsesStoredAbsolutes(t *testing.T) {
	weekly := int64(200000)
	policy := fixedPolicy(50000)
	policy.RiskSizing = domain.RiskSizing{
		Kind:             domain.SizingPercentOfBalance,
		PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 2},
	}
	policy.CascadingLimits.WeeklyLossCents = &weekly

	for _, balance := range []int64{0, -5000} {
		eff := Resolve(policy, balance)
		assert.Equal(t, int64(50000), eff.RiskCents)
		assert.Equal(t, int64(100000), eff.DailyLossCents)
		require.NotNil(t, eff.WeeklyLossCents)
		assert.Equal(t, int64(200000), *eff.WeeklyLossCents)
		assert.Equal(t, int64(500000), eff.MonthlyLossCents)
	}
}

func TestResolve_PercentOfInitialLimits(t *testing.T) {
	weeklyPct := 3.0
	policy := fixedPolicy(50000)
	policy.CascadingLimits.Mode = domain.LimitPercentOfInitial
	policy.CascadingLimits.PercentOfInitial = &domain.PercentOfInitialLimits{
		DailyPct:   1.5,
		WeeklyPct:  &weeklyPct,
		MonthlyPct: 6,
	}

	eff := Resolve(policy, 2_000_000)
	assert.Equal(t, int64(30000), eff.DailyLossCents)
	require.NotNil(t, eff.WeeklyLossCents)
	assert.Equal(t, int64(60000), *eff.WeeklyLossCents)
	assert.Equal(t, int64(120000), eff.MonthlyLossCents)
}

func TestResolve_PercentOfInitialWithoutWeekly(t *testing.T) {
	weekly := int64(200000)
	policy := fixedPolicy(50000)
	policy.CascadingLimits.WeeklyLossCents = &weekly
	policy.CascadingLimits.Mode = domain.LimitPercentOfInitial
	policy.CascadingLimits.PercentOfInitial = &domain.PercentOfInitialLimits{
		DailyPct:   1,
		MonthlyPct: 5,
	}

	eff := Resolve(policy, 1_000_000)
	assert.Nil(t, eff.WeeklyLossCents, "weekly limit is nil when no weekly percent is configured")
}

func TestResolve_RMultipleLimits(t *testing.T) {
	weeklyR := 6.0
	policy := fixedPolicy(50000)
	policy.RiskSizing = domain.RiskSizing{
		Kind:             domain.SizingPercentOfBalance,
		PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 2},
	}
	policy.CascadingLimits.Mode = domain.LimitRMultiples
	policy.CascadingLimits.RMultiples = &domain.RMultipleLimits{
		DailyR:   3,
		WeeklyR:  &weeklyR,
		MonthlyR: 12,
	}

	// Effective risk = 2% of $10,000.00 = $200.00.
	eff := Resolve(policy, 1_000_000)
	assert.Equal(t, int64(20000), eff.RiskCents)
	assert.Equal(t, int64(60000), eff.DailyLossCents)
	require.NotNil(t, eff.WeeklyLossCents)
	assert.Equal(t, int64(120000), *eff.WeeklyLossCents)
	assert.Equal(t, int64(240000), eff.MonthlyLossCents)
}

func TestResolve_DailyTargetScaling(t *testing.T) {
	tests := []struct {
		name         string
		balanceCents int64
		riskPercent  float64
		storedBase   int64
		storedTarget int64
		wantTarget   int64
	}{
		{
			// Effective risk doubles, so the target doubles: its R-multiple is preserved.
			name:         "target scales with effective risk",
			balanceCents: 5_000_000,
			riskPercent:  2,
			storedBase:   50000,
			storedTarget: 100000,
			wantTarget:   200000,
		},
		{
			name:         "target shrinks when effective risk shrinks",
			balanceCents: 1_250_000,
			riskPercent:  2,
			storedBase:   50000,
			storedTarget: 100000,
			wantTarget:   50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := fixedPolicy(tt.storedBase)
			policy.RiskSizing = domain.RiskSizing{
				Kind:             domain.SizingPercentOfBalance,
				PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: tt.riskPercent},
			}
			policy.GainMode.SingleTarget.DailyTargetCents = tt.storedTarget

			eff := Resolve(policy, tt.balanceCents)
			require.NotNil(t, eff.DailyProfitTargetCents)
			assert.Equal(t, tt.wantTarget, *eff.DailyProfitTargetCents)
		})
	}
}

func TestResolve_TargetPassThroughWhenStaticSizing(t *testing.T) {
	policy := fixedPolicy(50000)
	eff := Resolve(policy, 1_000_000)
	require.NotNil(t, eff.DailyProfitTargetCents)
	assert.Equal(t, int64(100000), *eff.DailyProfitTargetCents)
}

func TestResolve_NoTargetConfigured(t *testing.T) {
	policy := fixedPolicy(50000)
	policy.GainMode = domain.GainMode{
		Kind:        domain.GainCompounding,
		Compounding: &domain.CompoundingGain{ReinvestmentPercent: 50},
	}
	eff := Resolve(policy, 1_000_000)
	assert.Nil(t, eff.DailyProfitTargetCents)
}
