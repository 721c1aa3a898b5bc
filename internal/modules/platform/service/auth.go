package service

import (
	"context"
	"net/http"
	"strings"

	"challenge_desk/internal/models"

	"github.com/pkg/errors"
)

// Login exchanges credentials for a token: POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	var out models.AuthResult
	body := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return models.AuthResult{}, err
	}
	if out.Token == "" {
		return models.AuthResult{}, &TransportError{Op: "login", Err: errors.New("response carries no access_token")}
	}
	return out, nil
}

// Register creates an account and returns its first token: POST /auth/register.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	var out models.AuthResult
	creds.Email = strings.TrimSpace(creds.Email)
	creds.Username = strings.TrimSpace(creds.Username)
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", "", creds, &out); err != nil {
		return models.AuthResult{}, err
	}
	if out.Token == "" {
		return models.AuthResult{}, &TransportError{Op: "register", Err: errors.New("response carries no access_token")}
	}
	return out, nil
}

// Me validates token and returns its owner: GET /auth/me.
func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, "me", http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return models.User{}, err
	}
	if out.User == nil {
		return models.User{}, &TransportError{Op: "me", Err: errors.New("response carries no user")}
	}
	return *out.User, nil
}
