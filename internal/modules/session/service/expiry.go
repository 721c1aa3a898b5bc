package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiresAt reads the exp claim without verifying the signature; the
// client has no key and the server remains the authority. Opaque tokens
// report ok=false.
func expiresAt(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
