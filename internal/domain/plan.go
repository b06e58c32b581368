package domain

import "time"

// PlanRecord is the flattened record persisted when a trader commits a
// policy-derived plan. The effective cents values are converted back into
// percentages of the balance they were resolved against, so the plan survives
// later balance changes with its proportions intact.
type PlanRecord struct {
	ID                  string    `json:"id"`
	PolicyName          string    `json:"policy_name"`
	AccountBalanceCents int64     `json:"account_balance_cents"`

	RiskCents              int64  `json:"risk_cents"`
	DailyLossCents         int64  `json:"daily_loss_cents"`
	WeeklyLossCents        *int64 `json:"weekly_loss_cents,omitempty"`
	MonthlyLossCents       int64  `json:"monthly_loss_cents"`
	DailyProfitTargetCents *int64 `json:"daily_profit_target_cents,omitempty"`

	RiskPercent              float64  `json:"risk_percent"`
	DailyLossPercent         float64  `json:"daily_loss_percent"`
	WeeklyLossPercent        *float64 `json:"weekly_loss_percent,omitempty"`
	MonthlyLossPercent       float64  `json:"monthly_loss_percent"`
	DailyProfitTargetPercent *float64 `json:"daily_profit_target_percent,omitempty"`

	ExpectedValueCents int64     `json:"expected_value_cents"`
	WorstCaseCents     int64     `json:"worst_case_cents"`
	LeafCount          int       `json:"leaf_count"`
	CreatedAt          time.Time `json:"created_at"`
}
