package service

import (
	"context"
	"net/http"

	"challenge_desk/internal/models"
)

// Prices merges the US and Moroccan boards into one symbol map; on a clash
// the Moroccan entry wins: GET /market/prices.
func (c *Client) Prices(ctx context.Context) (models.Prices, error) {
	var out struct {
		US      map[string]models.PricePoint `json:"us"`
		Morocco map[string]models.PricePoint `json:"morocco"`
	}
	if err := c.do(ctx, "prices", http.MethodGet, "/market/prices", "", nil, &out); err != nil {
		return nil, err
	}

	res := make(models.Prices, len(out.US)+len(out.Morocco))
	for _, board := range []map[string]models.PricePoint{out.US, out.Morocco} {
		for sym, p := range board {
			if p.Symbol == "" {
				p.Symbol = sym
			}
			res[sym] = p
		}
	}
	return res, nil
}

// Signals fetches the current AI buy/sell picks: GET /market/signals.
func (c *Client) Signals(ctx context.Context) (models.Signals, error) {
	var out models.Signals
	if err := c.do(ctx, "signals", http.MethodGet, "/market/signals", "", nil, &out); err != nil {
		return models.Signals{}, err
	}
	return out, nil
}
