package risk

import (
	"fmt"
	"strconv"
	"strings"

	"riskPlanner/internal/domain"
)

// BuildSituations produces the linear "worst case keeps losing" progression
// T1..Tn for a policy: the base trade followed by one situation per configured
// recovery step. The result is never empty and CumulativeLossBefore is
// non-decreasing across it.
func BuildSituations(policy domain.RiskPolicy, eff domain.EffectiveValues) []domain.TradeSituation {
	maxContracts := situationMaxContracts(policy)
	minStop := situationMinStop(policy)

	situations := []domain.TradeSituation{{
		TradeNumber:         1,
		IsBaseTrade:         true,
		RiskCents:           eff.RiskCents,
		WorstCaseTotalCents: eff.RiskCents,
		MaxContracts:        maxContracts,
		MinStopPoints:       minStop,
	}}

	cumulativeLoss := int64(0)
	previousRisk := eff.RiskCents
	for i, step := range policy.LossRecovery.Sequence {
		stepRisk, label := resolveStepRisk(step.RiskCalculation, eff.RiskCents, previousRisk)
		cumulativeLoss += previousRisk
		situations = append(situations, domain.TradeSituation{
			TradeNumber:          i + 2,
			RiskCents:            stepRisk,
			CumulativeLossBefore: cumulativeLoss,
			WorstCaseTotalCents:  cumulativeLoss + stepRisk,
			MaxContracts:         maxContracts,
			MinStopPoints:        minStop,
			RiskLabel:            label,
		})
		previousRisk = stepRisk
	}
	return situations
}

// resolveStepRisk applies a recovery step's risk calculation. percent_of_base
// always rounds against the base effective risk, not the previous step's risk.
func resolveStepRisk(calc domain.RiskCalculation, baseRiskCents, previousRiskCents int64) (int64, string) {
	switch calc.Kind {
	case domain.RiskCalcPercentOfBase:
		return domain.PercentOf(baseRiskCents, calc.Percent), fmt.Sprintf("%s%% of base", trimFloat(calc.Percent))
	case domain.RiskCalcFixedCents:
		return calc.AmountCents, "fixed"
	case domain.RiskCalcSameAsPrevious:
		return previousRiskCents, "same as previous"
	default:
		// Unrecognized calculations degrade to the base risk.
		return baseRiskCents, ""
	}
}

func situationMaxContracts(policy domain.RiskPolicy) *int {
	if policy.ExecutionConstraints.MaxContracts != nil {
		return policy.ExecutionConstraints.MaxContracts
	}
	return policy.BaseTrade.MaxContracts
}

func situationMinStop(policy domain.RiskPolicy) *float64 {
	if policy.ExecutionConstraints.MinStopPoints != nil {
		return policy.ExecutionConstraints.MinStopPoints
	}
	return policy.BaseTrade.MinStopPoints
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 2, 64), "0"), ".")
}
