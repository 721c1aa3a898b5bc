package models

import "github.com/shopspring/decimal"

// Position is an open holding owned by one challenge.
type Position struct {
	ID            int64               `json:"id"`
	ChallengeID   int64               `json:"challenge_id"`
	Symbol        string              `json:"symbol"`
	Quantity      decimal.Decimal     `json:"quantity"`
	AvgEntryPrice decimal.Decimal     `json:"avg_entry_price"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	UnrealizedPnl decimal.Decimal     `json:"unrealized_pnl"`
}

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is an immutable history entry.
type Trade struct {
	ID          int64               `json:"id"`
	ChallengeID int64               `json:"challenge_id"`
	Symbol      string              `json:"symbol"`
	Side        Side                `json:"side"`
	Quantity    decimal.Decimal     `json:"quantity"`
	EntryPrice  decimal.Decimal     `json:"entry_price"`
	ExitPrice   decimal.NullDecimal `json:"exit_price"`
	Pnl         decimal.Decimal     `json:"pnl"`
	Status      string              `json:"status"`
	OpenedAt    Timestamp           `json:"opened_at"`
	ClosedAt    Timestamp           `json:"closed_at"`
}

// Realized is false while pnl is still zero.
func (t Trade) Realized() bool {
	return !t.Pnl.IsZero()
}

// Order is the body of a trade submission.
type Order struct {
	Side     Side    `json:"side" validate:"required,oneof=buy sell"`
	Symbol   string  `json:"symbol" validate:"required,max=20"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// OrderResult is the backend's answer to an accepted order.
type OrderResult struct {
	Message         string         `json:"message"`
	Trade           *Trade         `json:"trade"`
	Position        *Position      `json:"position"`
	ChallengeStatus map[string]any `json:"challenge_status"`
}
