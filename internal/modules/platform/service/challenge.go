package service

import (
	"context"
	"net/http"

	"challenge_desk/internal/models"
)

// ActiveChallenge returns nil without error when the user has none:
// GET /challenges/active.
func (c *Client) ActiveChallenge(ctx context.Context, token string) (*models.Challenge, error) {
	var out struct {
		Challenge *models.Challenge `json:"challenge"`
	}
	if err := c.do(ctx, "active_challenge", http.MethodGet, "/challenges/active", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Challenge, nil
}
