package risk

import (
	"riskPlanner/internal/domain"
)

// Resolve computes the effective monetary values in force for a policy at the
// given account balance. It is a pure function and never fails: degenerate
// inputs fall back to the policy's stored absolute values, never to negative or
// undefined amounts.
func Resolve(policy domain.RiskPolicy, accountBalanceCents int64) domain.EffectiveValues {
	eff := storedValues(policy)
	if accountBalanceCents <= 0 {
		// No balance to derive from; the stored absolutes stand unscaled.
		return eff
	}

	eff.RiskCents = resolveRisk(policy, accountBalanceCents)
	resolveLimits(&eff, policy, accountBalanceCents)
	scaleDailyTarget(&eff, policy)
	return eff
}

// storedValues collects the policy's stored absolute amounts, the fallback for
// every derivation.
func storedValues(policy domain.RiskPolicy) domain.EffectiveValues {
	eff := domain.EffectiveValues{
		RiskCents:              policy.BaseTrade.RiskCents,
		DailyLossCents:         policy.CascadingLimits.DailyLossCents,
		MonthlyLossCents:       policy.CascadingLimits.MonthlyLossCents,
		DailyProfitTargetCents: policy.GainMode.DailyTargetCents(),
	}
	if policy.CascadingLimits.WeeklyLossCents != nil {
		v := *policy.CascadingLimits.WeeklyLossCents
		eff.WeeklyLossCents = &v
	}
	return eff
}

func resolveRisk(policy domain.RiskPolicy, balanceCents int64) int64 {
	stored := policy.BaseTrade.RiskCents
	switch policy.RiskSizing.Kind {
	case domain.SizingPercentOfBalance:
		if policy.RiskSizing.PercentOfBalance == nil {
			return stored
		}
		derived := domain.PercentOf(balanceCents, policy.RiskSizing.PercentOfBalance.RiskPercent)
		if derived <= 0 {
			return stored
		}
		return derived
	case domain.SizingFixedRatio:
		if policy.RiskSizing.FixedRatio == nil || policy.RiskSizing.FixedRatio.BaseContractRiskCents <= 0 {
			return stored
		}
		return policy.RiskSizing.FixedRatio.BaseContractRiskCents
	default:
		// fixed, kelly_fractional and anything unrecognized use the stored base risk.
		return stored
	}
}

func resolveLimits(eff *domain.EffectiveValues, policy domain.RiskPolicy, balanceCents int64) {
	limits := policy.CascadingLimits
	switch limits.Mode {
	case domain.LimitPercentOfInitial:
		if limits.PercentOfInitial == nil {
			return
		}
		pcts := limits.PercentOfInitial
		eff.DailyLossCents = domain.PercentOf(balanceCents, pcts.DailyPct)
		eff.MonthlyLossCents = domain.PercentOf(balanceCents, pcts.MonthlyPct)
		eff.WeeklyLossCents = nil
		if pcts.WeeklyPct != nil {
			weekly := domain.PercentOf(balanceCents, *pcts.WeeklyPct)
			eff.WeeklyLossCents = &weekly
		}
	case domain.LimitRMultiples:
		if limits.RMultiples == nil {
			return
		}
		rs := limits.RMultiples
		eff.DailyLossCents = domain.ScaleCents(eff.RiskCents, rs.DailyR)
		eff.MonthlyLossCents = domain.ScaleCents(eff.RiskCents, rs.MonthlyR)
		eff.WeeklyLossCents = nil
		if rs.WeeklyR != nil {
			weekly := domain.ScaleCents(eff.RiskCents, *rs.WeeklyR)
			eff.WeeklyLossCents = &weekly
		}
	default:
		// absolute or unrecognized: stored values stand.
	}
}

// scaleDailyTarget preserves the R-multiple of the stored daily profit target
// when dynamic sizing moved the effective risk away from the stored base risk.
func scaleDailyTarget(eff *domain.EffectiveValues, policy domain.RiskPolicy) {
	storedBase := policy.BaseTrade.RiskCents
	if eff.DailyProfitTargetCents == nil || storedBase == 0 || eff.RiskCents == storedBase {
		return
	}
	scaled := domain.RoundCents(float64(*eff.DailyProfitTargetCents) * float64(eff.RiskCents) / float64(storedBase))
	eff.DailyProfitTargetCents = &scaled
}
