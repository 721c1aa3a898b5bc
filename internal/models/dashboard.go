package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source names a dashboard input.
type Source string

const (
	SourceChallenge Source = "challenge"
	SourcePositions Source = "positions"
	SourceTrades    Source = "trades"
	SourcePrices    Source = "prices"
	SourceSignals   Source = "signals"
)

// DashboardView is a derived snapshot. It is always replaced whole.
type DashboardView struct {
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`

	HasChallenge bool       `json:"has_challenge"`
	Challenge    *Challenge `json:"challenge"`
	Positions    []Position `json:"positions"`
	Trades       []Trade    `json:"trades"`
	RecentTrades []Trade    `json:"recent_trades"`
	Prices       Prices     `json:"prices"`
	Signals      *Signals   `json:"signals"`

	ProfitPct            float64         `json:"profit_pct"`
	IsProfit             bool            `json:"is_profit"`
	ProgressTowardTarget float64         `json:"progress_toward_target"`
	DailyPnlPct          float64         `json:"daily_pnl_pct"`
	DailyLossUsed        float64         `json:"daily_loss_used"`
	TotalUnrealizedPnl   decimal.Decimal `json:"total_unrealized_pnl"`
	Limits               Limits          `json:"limits"`

	SourceErrors map[Source]string `json:"source_errors,omitempty"`
}

// TradeValue estimates the notional of qty units at the current price.
func (v DashboardView) TradeValue(symbol string, qty float64) (decimal.Decimal, bool) {
	p, ok := v.Prices[symbol]
	if !ok || qty <= 0 {
		return decimal.Zero, false
	}
	return p.Price.Mul(decimal.NewFromFloat(qty)), true
}
