package models

import "github.com/shopspring/decimal"

// PricePoint is replaced wholesale on every refresh.
type PricePoint struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	ChangePct float64         `json:"change_pct"`
	Volume    int64           `json:"volume,omitempty"`
	Source    string          `json:"source,omitempty"`
	UpdatedAt Timestamp       `json:"updated_at"`
}

// Prices is keyed by symbol across all markets.
type Prices map[string]PricePoint

type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

type Signal struct {
	Symbol     string     `json:"symbol"`
	SignalType SignalType `json:"signal_type"`
	Confidence float64    `json:"confidence"`
	Price      float64    `json:"price,omitempty"`
	RSI        float64    `json:"rsi,omitempty"`
	Momentum   float64    `json:"momentum,omitempty"`
	Reason     string     `json:"reason"`
	CreatedAt  Timestamp  `json:"created_at"`
}

type Signals struct {
	BuySignals  []Signal  `json:"buy_signals"`
	SellSignals []Signal  `json:"sell_signals"`
	UpdatedAt   Timestamp `json:"updated_at"`
}
