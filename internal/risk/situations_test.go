package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskPlanner/internal/domain"
)

func recoveryPolicy(baseRiskCents int64, steps ...domain.RiskCalculation) domain.RiskPolicy {
	policy := fixedPolicy(baseRiskCents)
	for _, calc := range steps {
		policy.LossRecovery.Sequence = append(policy.LossRecovery.Sequence, domain.RecoveryStep{RiskCalculation: calc})
	}
	return policy
}

func TestBuildSituations_BaseTradeOnly(t *testing.T) {
	policy := fixedPolicy(50000)
	eff := Resolve(policy, 0)

	situations := BuildSituations(policy, eff)
	require.Len(t, situations, 1)
	assert.True(t, situations[0].IsBaseTrade)
	assert.Equal(t, 1, situations[0].TradeNumber)
	assert.Equal(t, int64(50000), situations[0].RiskCents)
	assert.Equal(t, int64(0), situations[0].CumulativeLossBefore)
	assert.Equal(t, int64(50000), situations[0].WorstCaseTotalCents)
	assert.Empty(t, situations[0].RiskLabel)
}

func TestBuildSituations_PercentOfBaseRounding(t *testing.T) {
	policy := recoveryPolicy(50000,
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 50},
	)
	eff := Resolve(policy, 0)

	situations := BuildSituations(policy, eff)
	require.Len(t, situations, 2)
	assert.Equal(t, int64(25000), situations[1].RiskCents)
	assert.Equal(t, int64(50000), situations[1].CumulativeLossBefore)
	assert.Equal(t, int64(75000), situations[1].WorstCaseTotalCents)
	assert.Equal(t, "50% of base", situations[1].RiskLabel)
}

func TestBuildSituations_StepKinds(t *testing.T) {
	policy := recoveryPolicy(50000,
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 50},
		domain.RiskCalculation{Kind: domain.RiskCalcSameAsPrevious},
		domain.RiskCalculation{Kind: domain.RiskCalcFixedCents, AmountCents: 10000},
	)
	eff := Resolve(policy, 0)

	situations := BuildSituations(policy, eff)
	require.Len(t, situations, 4)

	// T2: 50% of the base effective risk.
	assert.Equal(t, int64(25000), situations[1].RiskCents)
	// T3: repeats T2's resolved risk, not a fresh percent of base.
	assert.Equal(t, int64(25000), situations[2].RiskCents)
	assert.Equal(t, "same as previous", situations[2].RiskLabel)
	// T4: literal amount.
	assert.Equal(t, int64(10000), situations[3].RiskCents)
	assert.Equal(t, "fixed", situations[3].RiskLabel)

	// Cumulative loss accounting walks the previous risks.
	assert.Equal(t, int64(50000), situations[1].CumulativeLossBefore)
	assert.Equal(t, int64(75000), situations[2].CumulativeLossBefore)
	assert.Equal(t, int64(100000), situations[3].CumulativeLossBefore)
	assert.Equal(t, int64(110000), situations[3].WorstCaseTotalCents)
}

func TestBuildSituations_PercentOfBaseAlwaysAgainstBase(t *testing.T) {
	// Two consecutive 50% steps both resolve against the base, so they are
	// equal instead of halving each time.
	policy := recoveryPolicy(50000,
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 50},
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 50},
	)
	eff := Resolve(policy, 0)

	situations := BuildSituations(policy, eff)
	require.Len(t, situations, 3)
	assert.Equal(t, int64(25000), situations[1].RiskCents)
	assert.Equal(t, int64(25000), situations[2].RiskCents)
}

func TestBuildSituations_Monotonicity(t *testing.T) {
	policy := recoveryPolicy(50000,
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 75},
		domain.RiskCalculation{Kind: domain.RiskCalcFixedCents, AmountCents: 20000},
		domain.RiskCalculation{Kind: domain.RiskCalcSameAsPrevious},
		domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 25},
	)
	eff := Resolve(policy, 0)

	situations := BuildSituations(policy, eff)
	require.Len(t, situations, 5)
	for i := 1; i < len(situations); i++ {
		assert.GreaterOrEqual(t, situations[i].CumulativeLossBefore, situations[i-1].CumulativeLossBefore,
			"cumulative loss must be non-decreasing at index %d", i)
		assert.Greater(t, situations[i].WorstCaseTotalCents, situations[i-1].WorstCaseTotalCents,
			"worst case must be strictly increasing at index %d", i)
	}
}

func TestBuildSituations_ConstraintOverrides(t *testing.T) {
	baseContracts := 5
	baseStop := 8.0
	policy := recoveryPolicy(50000, domain.RiskCalculation{Kind: domain.RiskCalcSameAsPrevious})
	policy.BaseTrade.MaxContracts = &baseContracts
	policy.BaseTrade.MinStopPoints = &baseStop

	eff := Resolve(policy, 0)
	situations := BuildSituations(policy, eff)
	for _, s := range situations {
		require.NotNil(t, s.MaxContracts)
		assert.Equal(t, 5, *s.MaxContracts)
		require.NotNil(t, s.MinStopPoints)
		assert.Equal(t, 8.0, *s.MinStopPoints)
	}

	// Execution constraints take precedence over the base trade's own limits.
	execContracts := 3
	execStop := 12.0
	policy.ExecutionConstraints.MaxContracts = &execContracts
	policy.ExecutionConstraints.MinStopPoints = &execStop
	situations = BuildSituations(policy, eff)
	for _, s := range situations {
		assert.Equal(t, 3, *s.MaxContracts)
		assert.Equal(t, 12.0, *s.MinStopPoints)
	}
}
