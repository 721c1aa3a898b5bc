package service

import (
	"testing"

	"challenge_desk/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func challenge(initial, equity, dailyStart string) *models.Challenge {
	return &models.Challenge{
		ID:               1,
		PlanName:         "Starter",
		InitialBalance:   dec(initial),
		CurrentBalance:   dec(initial),
		Equity:           dec(equity),
		DailyStartEquity: dec(dailyStart),
		Status:           models.ChallengeActive,
	}
}

func TestComputeWithNothingLoaded(t *testing.T) {
	v := Compute(Inputs{}, models.DefaultLimits())

	assert.False(t, v.HasChallenge)
	assert.Nil(t, v.Challenge)
	assert.NotNil(t, v.Positions)
	assert.NotNil(t, v.Trades)
	assert.NotNil(t, v.Prices)
	assert.Zero(t, v.ProfitPct)
	assert.Zero(t, v.ProgressTowardTarget)
	assert.Nil(t, v.SourceErrors)
}

func TestComputeProfitAtTarget(t *testing.T) {
	v := Compute(Inputs{Challenge: challenge("5000", "5500", "5500")}, models.DefaultLimits())

	require.True(t, v.HasChallenge)
	assert.InDelta(t, 10.0, v.ProfitPct, 1e-9)
	assert.True(t, v.IsProfit)
	assert.InDelta(t, 1.0, v.ProgressTowardTarget, 1e-9)
	assert.Zero(t, v.DailyPnlPct)
}

func TestComputeProgressIsClamped(t *testing.T) {
	limits := models.DefaultLimits()

	above := Compute(Inputs{Challenge: challenge("5000", "6500", "5000")}, limits)
	assert.InDelta(t, 30.0, above.ProfitPct, 1e-9)
	assert.Equal(t, 1.0, above.ProgressTowardTarget)

	below := Compute(Inputs{Challenge: challenge("5000", "4800", "5000")}, limits)
	assert.InDelta(t, -4.0, below.ProfitPct, 1e-9)
	assert.False(t, below.IsProfit)
	assert.Equal(t, 0.0, below.ProgressTowardTarget)

	half := Compute(Inputs{Challenge: challenge("5000", "5250", "5000")}, limits)
	assert.InDelta(t, 0.5, half.ProgressTowardTarget, 1e-9)
}

func TestComputeDailyLoss(t *testing.T) {
	v := Compute(Inputs{Challenge: challenge("5000", "4850", "5000")}, models.DefaultLimits())
	assert.InDelta(t, -3.0, v.DailyPnlPct, 1e-9)
	assert.InDelta(t, 0.6, v.DailyLossUsed, 1e-9)

	up := Compute(Inputs{Challenge: challenge("5000", "5100", "5000")}, models.DefaultLimits())
	assert.Zero(t, up.DailyLossUsed)
}

func TestComputeZeroInitialBalance(t *testing.T) {
	v := Compute(Inputs{Challenge: challenge("0", "100", "0")}, models.DefaultLimits())
	assert.True(t, v.HasChallenge)
	assert.Zero(t, v.ProfitPct)
	assert.Zero(t, v.DailyPnlPct)
}

func TestComputeDropsAccountDataWithoutChallenge(t *testing.T) {
	v := Compute(Inputs{
		Positions: []models.Position{{ID: 1, Symbol: "AAPL"}},
		Trades:    []models.Trade{{ID: 1}},
		Prices:    models.Prices{"AAPL": {Symbol: "AAPL", Price: dec("190")}},
	}, models.DefaultLimits())

	assert.False(t, v.HasChallenge)
	assert.Empty(t, v.Positions)
	assert.Empty(t, v.Trades)
	assert.Len(t, v.Prices, 1)
}

func TestComputeDerivedTotals(t *testing.T) {
	trades := make([]models.Trade, 7)
	for i := range trades {
		trades[i] = models.Trade{ID: int64(7 - i)}
	}
	in := Inputs{
		Challenge: challenge("5000", "5000", "5000"),
		Positions: []models.Position{
			{Symbol: "AAPL", UnrealizedPnl: dec("12.50")},
			{Symbol: "MSFT", UnrealizedPnl: dec("-2.25")},
		},
		Trades: trades,
		Prices: models.Prices{"AAPL": {Symbol: "AAPL", Price: dec("190.5")}},
		Errors: map[models.Source]string{models.SourceSignals: "timeout"},
	}
	v := Compute(in, models.DefaultLimits())

	assert.True(t, dec("10.25").Equal(v.TotalUnrealizedPnl))
	require.Len(t, v.RecentTrades, 5)
	assert.Equal(t, int64(7), v.RecentTrades[0].ID)
	assert.Len(t, v.Trades, 7)
	assert.Equal(t, "timeout", v.SourceErrors[models.SourceSignals])

	value, ok := v.TradeValue("AAPL", 2)
	assert.True(t, ok)
	assert.True(t, dec("381").Equal(value))
	_, ok = v.TradeValue("TSLA", 1)
	assert.False(t, ok)

	// the view must not alias its inputs
	in.Positions[0].Symbol = "XXX"
	in.Prices["AAPL"] = models.PricePoint{}
	assert.Equal(t, "AAPL", v.Positions[0].Symbol)
	assert.True(t, dec("190.5").Equal(v.Prices["AAPL"].Price))
}
