package models

import "github.com/shopspring/decimal"

type ChallengeStatus string

const (
	ChallengeActive ChallengeStatus = "active"
	ChallengePassed ChallengeStatus = "passed"
	ChallengeFailed ChallengeStatus = "failed"
)

// Terminal reports whether trade activity can no longer change the challenge.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengePassed || s == ChallengeFailed
}

type Challenge struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	PlanID           int64           `json:"plan_id"`
	PlanName         string          `json:"plan_name"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	CurrentBalance   decimal.Decimal `json:"current_balance"` // cash available to buy
	Equity           decimal.Decimal `json:"equity"`
	DailyStartEquity decimal.Decimal `json:"daily_start_equity"`
	Status           ChallengeStatus `json:"status"`
	FailureReason    string          `json:"failure_reason"`
	StartDate        Timestamp       `json:"start_date"`
	EndDate          Timestamp       `json:"end_date"`
}

func (c *Challenge) Active() bool {
	return c != nil && c.Status == ChallengeActive
}

// Limits are the challenge rules the dashboard measures against.
type Limits struct {
	ProfitTargetPct   float64 `json:"profit_target_pct"`
	DailyLossLimitPct float64 `json:"daily_loss_limit_pct"`
}

func DefaultLimits() Limits {
	return Limits{ProfitTargetPct: 10.0, DailyLossLimitPct: 5.0}
}
