package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipcoin/miniapp/internal/domain"
)

func signTestToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestInspect_ReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	token := signTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
		TelegramID: "777",
		Role:       "tester",
	})

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "777", claims.TelegramID)
	assert.Equal(t, "tester", claims.Role)
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))
}

func TestInspect_ExpiredTokenStillReadable(t *testing.T) {
	token := signTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
}

func TestInspect_RejectsOpaqueTokens(t *testing.T) {
	for _, tok := range []string{"", "opaque-token", "a.b", "a.b.c"} {
		t.Run(tok, func(t *testing.T) {
			_, err := Inspect(tok)
			assert.Error(t, err)
		})
	}
}

func TestSessionFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	jwtToken := signTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}})

	t.Run("empty token is guest", func(t *testing.T) {
		s := SessionFromToken("")
		assert.False(t, s.Authenticated)
		assert.Nil(t, s.ExpiresAt)
	})

	t.Run("opaque token is authenticated without expiry", func(t *testing.T) {
		s := SessionFromToken("opaque")
		assert.True(t, s.Authenticated)
		assert.Equal(t, "opaque", s.Token)
		assert.Empty(t, s.Subject)
		assert.Nil(t, s.ExpiresAt)
	})

	t.Run("jwt fills subject and expiry", func(t *testing.T) {
		s := SessionFromToken(jwtToken)
		assert.True(t, s.Authenticated)
		assert.Equal(t, "42", s.Subject)
		require.NotNil(t, s.ExpiresAt)
		assert.True(t, exp.Equal(*s.ExpiresAt))
		assert.False(t, s.Expired(time.Now()))
		assert.True(t, s.Expired(exp.Add(time.Second)))
	})
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Minute)

	assert.Equal(t, time.Duration(0), Remaining(domain.Session{}, now))
	assert.Equal(t, time.Minute, Remaining(domain.Session{ExpiresAt: &exp}, now))
	assert.Equal(t, time.Duration(0), Remaining(domain.Session{ExpiresAt: &exp}, exp.Add(time.Second)))
}
