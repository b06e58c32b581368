package domain

// EffectiveValues are the balance-scaled monetary values actually in force for a
// policy at a given account balance. They are derived on demand and never
// persisted directly; only the resulting plan percentages are stored.
type EffectiveValues struct {
	RiskCents              int64  `json:"risk_cents"`
	DailyLossCents         int64  `json:"daily_loss_cents"`
	WeeklyLossCents        *int64 `json:"weekly_loss_cents,omitempty"`
	MonthlyLossCents       int64  `json:"monthly_loss_cents"`
	DailyProfitTargetCents *int64 `json:"daily_profit_target_cents,omitempty"`
}

// TradeSituation is one position in the "worst case keeps losing" progression
// T1..Tn. Index 0 of a situation sequence is always the base trade.
type TradeSituation struct {
	TradeNumber          int      `json:"trade_number"`
	IsBaseTrade          bool     `json:"is_base_trade"`
	RiskCents            int64    `json:"risk_cents"`
	CumulativeLossBefore int64    `json:"cumulative_loss_before"`
	WorstCaseTotalCents  int64    `json:"worst_case_total_cents"`
	MaxContracts         *int     `json:"max_contracts,omitempty"`
	MinStopPoints        *float64 `json:"min_stop_points,omitempty"`
	RiskLabel            string   `json:"risk_label,omitempty"`
}
