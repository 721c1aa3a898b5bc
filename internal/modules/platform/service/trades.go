package service

import (
	"context"
	"net/http"

	"challenge_desk/internal/models"
)

// Positions lists open positions of the active challenge: GET /trades/positions.
func (c *Client) Positions(ctx context.Context, token string) ([]models.Position, error) {
	var out struct {
		Positions []models.Position `json:"positions"`
	}
	if err := c.do(ctx, "positions", http.MethodGet, "/trades/positions", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Positions == nil {
		out.Positions = []models.Position{}
	}
	return out.Positions, nil
}

// Trades lists trade history, newest first: GET /trades.
func (c *Client) Trades(ctx context.Context, token string) ([]models.Trade, error) {
	var out struct {
		Trades []models.Trade `json:"trades"`
	}
	if err := c.do(ctx, "trades", http.MethodGet, "/trades", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Trades == nil {
		out.Trades = []models.Trade{}
	}
	return out.Trades, nil
}

// PlaceOrder submits one market order: POST /trades. A rejected order comes
// back as *APIError carrying the server's message.
func (c *Client) PlaceOrder(ctx context.Context, token string, order models.Order) (models.OrderResult, error) {
	var out models.OrderResult
	if err := c.do(ctx, "place_order", http.MethodPost, "/trades", token, order, &out); err != nil {
		return models.OrderResult{}, err
	}
	return out, nil
}
