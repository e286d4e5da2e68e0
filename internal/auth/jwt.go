package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flipcoin/miniapp/internal/domain"
)

// Claims holds the claims the API server puts in its session tokens.
type Claims struct {
	jwt.RegisteredClaims
	TelegramID string `json:"telegram_id,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Inspect decodes a session token without verifying its signature. The client
// never holds the signing key; the server remains the only verifier. The
// result is informational only.
func Inspect(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("not a JWT")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// SessionFromToken builds the session for token, filling subject and expiry
// when the token is a readable JWT. Opaque tokens yield a plain session.
func SessionFromToken(token string) domain.Session {
	s := domain.NewSession(token)
	if token == "" {
		return s
	}
	claims, err := Inspect(token)
	if err != nil {
		return s
	}
	s.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		s.ExpiresAt = &exp
	}
	return s
}

// Remaining returns how long until the session expires, or zero when the
// expiry is unknown or already past.
func Remaining(s domain.Session, now time.Time) time.Duration {
	if s.ExpiresAt == nil || !now.Before(*s.ExpiresAt) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
