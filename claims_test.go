package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims_Accessors(t *testing.T) {
	now := time.Now()
	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ID:        "jti-456",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:  "user-123",
		Kind: accounts.KindManager,
	}

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, accounts.KindManager, claims.ProfileKind())
	assert.Equal(t, "jti-456", claims.TokenID())
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
}

func TestJWTClaims_ZeroValues(t *testing.T) {
	claims := &accounts.JWTClaims{}

	assert.Empty(t, claims.Subject())
	assert.Empty(t, claims.TokenID())
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}

func TestParseProfileKind(t *testing.T) {
	tests := []struct {
		raw    string
		want   accounts.ProfileKind
		wantOK bool
	}{
		{"C", accounts.KindCustomer, true},
		{"G", accounts.KindManager, true},
		{"c", accounts.KindCustomer, true},
		{"g", accounts.KindManager, true},
		{"", "", false},
		{"X", "", false},
	}

	for _, tt := range tests {
		kind, ok := accounts.ParseProfileKind(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		if tt.wantOK {
			assert.Equal(t, tt.want, kind, "raw=%q", tt.raw)
		}
	}
}
