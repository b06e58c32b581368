package domain

import "time"

// RiskSizingKind identifies how the base trade risk is derived from the account.
type RiskSizingKind string

const (
	SizingFixed            RiskSizingKind = "fixed"
	SizingPercentOfBalance RiskSizingKind = "percent_of_balance"
	SizingFixedRatio       RiskSizingKind = "fixed_ratio"
	SizingKellyFractional  RiskSizingKind = "kelly_fractional"
)

// PercentOfBalanceSizing sizes the base trade as a percentage of the current balance.
type PercentOfBalanceSizing struct {
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"`
}

// FixedRatioSizing pins the base trade risk to a constant per-contract amount.
type FixedRatioSizing struct {
	BaseContractRiskCents int64 `json:"base_contract_risk_cents" yaml:"base_contract_risk_cents"`
}

// KellyFractionalSizing is accepted in policy documents but does not affect the
// effective risk; the resolver falls back to the stored base risk for it.
type KellyFractionalSizing struct {
	Fraction float64 `json:"fraction" yaml:"fraction"`
	WinRate  float64 `json:"win_rate" yaml:"win_rate"`
	Payoff   float64 `json:"payoff" yaml:"payoff"`
}

// RiskSizing is a tagged union: Kind selects which payload (if any) is in force.
type RiskSizing struct {
	Kind             RiskSizingKind          `json:"kind" yaml:"kind"`
	PercentOfBalance *PercentOfBalanceSizing `json:"percent_of_balance,omitempty" yaml:"percent_of_balance,omitempty"`
	FixedRatio       *FixedRatioSizing       `json:"fixed_ratio,omitempty" yaml:"fixed_ratio,omitempty"`
	Kelly            *KellyFractionalSizing  `json:"kelly_fractional,omitempty" yaml:"kelly_fractional,omitempty"`
}

// BaseTrade describes the first trade of the day as stored in the policy.
type BaseTrade struct {
	RiskCents     int64    `json:"risk_cents" yaml:"risk_cents"`
	MaxContracts  *int     `json:"max_contracts,omitempty" yaml:"max_contracts,omitempty"`
	MinStopPoints *float64 `json:"min_stop_points,omitempty" yaml:"min_stop_points,omitempty"`
}

// RiskCalcKind identifies how a recovery step derives its risk amount.
type RiskCalcKind string

const (
	RiskCalcPercentOfBase  RiskCalcKind = "percent_of_base"
	RiskCalcFixedCents     RiskCalcKind = "fixed_cents"
	RiskCalcSameAsPrevious RiskCalcKind = "same_as_previous"
)

// RiskCalculation is the tagged union inside a recovery step. Percent is only
// meaningful for percent_of_base, AmountCents only for fixed_cents.
type RiskCalculation struct {
	Kind        RiskCalcKind `json:"kind" yaml:"kind"`
	Percent     float64      `json:"percent,omitempty" yaml:"percent,omitempty"`
	AmountCents int64        `json:"amount_cents,omitempty" yaml:"amount_cents,omitempty"`
}

// RecoveryStep is one position in the after-loss progression.
type RecoveryStep struct {
	RiskCalculation RiskCalculation `json:"risk_calculation" yaml:"risk_calculation"`
}

// LossRecovery configures the ordered sequence of trades taken after consecutive losses.
type LossRecovery struct {
	Sequence             []RecoveryStep `json:"sequence" yaml:"sequence"`
	ExecuteAllRegardless bool           `json:"execute_all_regardless" yaml:"execute_all_regardless"`
	StopAfterSequence    bool           `json:"stop_after_sequence" yaml:"stop_after_sequence"`
}

// GainModeKind identifies how winning trades size subsequent trades.
type GainModeKind string

const (
	GainCompounding  GainModeKind = "compounding"
	GainSingleTarget GainModeKind = "single_target"
)

// CompoundingGain reinvests a percentage of accumulated profits into each next trade.
type CompoundingGain struct {
	ReinvestmentPercent float64 `json:"reinvestment_percent" yaml:"reinvestment_percent"`
	StopOnFirstLoss     bool    `json:"stop_on_first_loss" yaml:"stop_on_first_loss"`
	DailyTargetCents    *int64  `json:"daily_target_cents,omitempty" yaml:"daily_target_cents,omitempty"`
}

// SingleTargetGain keeps trading at base size until a cumulative daily target is reached.
type SingleTargetGain struct {
	DailyTargetCents int64 `json:"daily_target_cents" yaml:"daily_target_cents"`
}

// GainMode is a tagged union: Kind selects the active payload.
type GainMode struct {
	Kind         GainModeKind     `json:"kind" yaml:"kind"`
	Compounding  *CompoundingGain `json:"compounding,omitempty" yaml:"compounding,omitempty"`
	SingleTarget *SingleTargetGain `json:"single_target,omitempty" yaml:"single_target,omitempty"`
}

// DailyTargetCents returns the configured daily profit target for either gain
// mode, or nil when none is set.
func (g GainMode) DailyTargetCents() *int64 {
	switch g.Kind {
	case GainSingleTarget:
		if g.SingleTarget != nil {
			v := g.SingleTarget.DailyTargetCents
			return &v
		}
	case GainCompounding:
		if g.Compounding != nil && g.Compounding.DailyTargetCents != nil {
			v := *g.Compounding.DailyTargetCents
			return &v
		}
	}
	return nil
}

// LimitModeKind identifies how the cascading loss limits are expressed.
type LimitModeKind string

const (
	LimitAbsolute         LimitModeKind = "absolute"
	LimitPercentOfInitial LimitModeKind = "percent_of_initial"
	LimitRMultiples       LimitModeKind = "r_multiples"
)

// PercentOfInitialLimits expresses each loss limit as a percentage of the balance.
type PercentOfInitialLimits struct {
	DailyPct   float64  `json:"daily_pct" yaml:"daily_pct"`
	WeeklyPct  *float64 `json:"weekly_pct,omitempty" yaml:"weekly_pct,omitempty"`
	MonthlyPct float64  `json:"monthly_pct" yaml:"monthly_pct"`
}

// RMultipleLimits expresses each loss limit as a multiple of the effective base risk.
type RMultipleLimits struct {
	DailyR   float64  `json:"daily_r" yaml:"daily_r"`
	WeeklyR  *float64 `json:"weekly_r,omitempty" yaml:"weekly_r,omitempty"`
	MonthlyR float64  `json:"monthly_r" yaml:"monthly_r"`
}

// CascadingLimits holds the daily/weekly/monthly maximum-loss thresholds. The
// stored cents values are authoritative for the absolute mode and serve as the
// fallback when a derived mode carries no payload.
type CascadingLimits struct {
	DailyLossCents   int64                   `json:"daily_loss_cents" yaml:"daily_loss_cents"`
	WeeklyLossCents  *int64                  `json:"weekly_loss_cents,omitempty" yaml:"weekly_loss_cents,omitempty"`
	MonthlyLossCents int64                   `json:"monthly_loss_cents" yaml:"monthly_loss_cents"`
	Mode             LimitModeKind           `json:"mode" yaml:"mode"`
	PercentOfInitial *PercentOfInitialLimits `json:"percent_of_initial,omitempty" yaml:"percent_of_initial,omitempty"`
	RMultiples       *RMultipleLimits        `json:"r_multiples,omitempty" yaml:"r_multiples,omitempty"`
}

// OperatingHours restricts when the policy allows trading (informational for the
// planner; enforcement happens at execution time, outside this system).
type OperatingHours struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// ExecutionConstraints carries per-trade execution limits. When set they override
// the base trade's own MaxContracts/MinStopPoints in the situation sequence.
type ExecutionConstraints struct {
	MinStopPoints  *float64        `json:"min_stop_points,omitempty" yaml:"min_stop_points,omitempty"`
	MaxContracts   *int            `json:"max_contracts,omitempty" yaml:"max_contracts,omitempty"`
	OperatingHours *OperatingHours `json:"operating_hours,omitempty" yaml:"operating_hours,omitempty"`
}

// RiskPolicy is the immutable configuration record describing a trader's daily
// risk-management policy. Policies are hand-edited JSON/YAML documents; shape
// validation happens at the loading boundary, the engine itself only guards
// numeric edge cases.
type RiskPolicy struct {
	Name                 string               `json:"name" yaml:"name"`
	BaseTrade            BaseTrade            `json:"base_trade" yaml:"base_trade"`
	RiskSizing           RiskSizing           `json:"risk_sizing" yaml:"risk_sizing"`
	LossRecovery         LossRecovery         `json:"loss_recovery" yaml:"loss_recovery"`
	GainMode             GainMode             `json:"gain_mode" yaml:"gain_mode"`
	CascadingLimits      CascadingLimits      `json:"cascading_limits" yaml:"cascading_limits"`
	ExecutionConstraints ExecutionConstraints `json:"execution_constraints" yaml:"execution_constraints"`
}

// StoredPolicy wraps a policy with its persistence metadata.
type StoredPolicy struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Policy    RiskPolicy `json:"policy"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
