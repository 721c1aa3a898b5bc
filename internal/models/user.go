package models

import "strings"

// User is the identity returned by the auth service.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt Timestamp `json:"created_at"`
}

// DisplayName falls back to the mailbox part of the email, then to "Trader".
func (u *User) DisplayName() string {
	if u == nil {
		return "Trader"
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return "Trader"
}

// Credentials are exchanged for a token by the auth service.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// AuthResult is what login and register return.
type AuthResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"access_token"`
}
