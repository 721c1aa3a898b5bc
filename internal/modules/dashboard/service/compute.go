package service

import (
	"challenge_desk/internal/helper"
	"challenge_desk/internal/models"

	"github.com/shopspring/decimal"
)

const recentTrades = 5

// Inputs is the latest value of every dashboard source. Nil or empty means
// not loaded yet, which is a valid state.
type Inputs struct {
	Challenge *models.Challenge
	Positions []models.Position
	Trades    []models.Trade
	Prices    models.Prices
	Signals   *models.Signals
	Errors    map[models.Source]string
}

// Compute derives a view from in. It has no side effects and never fails;
// Version and UpdatedAt are left for the caller.
func Compute(in Inputs, limits models.Limits) models.DashboardView {
	v := models.DashboardView{
		Positions:          []models.Position{},
		Trades:             []models.Trade{},
		RecentTrades:       []models.Trade{},
		Prices:             make(models.Prices, len(in.Prices)),
		TotalUnrealizedPnl: decimal.Zero,
		Limits:             limits,
	}
	for sym, p := range in.Prices {
		v.Prices[sym] = p
	}
	if in.Signals != nil {
		s := *in.Signals
		v.Signals = &s
	}
	if len(in.Errors) > 0 {
		v.SourceErrors = make(map[models.Source]string, len(in.Errors))
		for src, msg := range in.Errors {
			v.SourceErrors[src] = msg
		}
	}

	if in.Challenge == nil {
		return v
	}

	ch := *in.Challenge
	v.HasChallenge = true
	v.Challenge = &ch
	v.Positions = append(v.Positions, in.Positions...)
	v.Trades = append(v.Trades, in.Trades...)
	v.RecentTrades = append(v.RecentTrades, in.Trades[:min(len(in.Trades), recentTrades)]...)

	for _, p := range v.Positions {
		v.TotalUnrealizedPnl = v.TotalUnrealizedPnl.Add(p.UnrealizedPnl)
	}

	equity := ch.Equity.InexactFloat64()
	v.ProfitPct = helper.PctChange(ch.InitialBalance.InexactFloat64(), equity)
	v.IsProfit = v.ProfitPct >= 0
	if limits.ProfitTargetPct > 0 {
		v.ProgressTowardTarget = helper.Clamp(v.ProfitPct/limits.ProfitTargetPct, 0, 1)
	}

	v.DailyPnlPct = helper.PctChange(ch.DailyStartEquity.InexactFloat64(), equity)
	if limits.DailyLossLimitPct > 0 {
		v.DailyLossUsed = helper.Clamp(-v.DailyPnlPct/limits.DailyLossLimitPct, 0, 1)
	}
	return v
}
