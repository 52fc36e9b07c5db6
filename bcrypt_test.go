package accounts_test

import (
	"strings"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{
			name:    "Valid secret",
			secret:  "securePassword123!",
			wantErr: false,
		},
		{
			name:    "Empty secret",
			secret:  "",
			wantErr: true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := accounts.HashPassword(tt.secret)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = accounts.ComparePasswordAndHash(tt.secret, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	secret := "testPassword123!"
	hash, err := accounts.HashPassword(secret)
	assert.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		hash    string
		wantErr bool
	}{
		{
			name:    "Matching secret",
			secret:  secret,
			hash:    hash,
			wantErr: false,
		},
		{
			name:    "Wrong secret",
			secret:  "wrongPassword",
			hash:    hash,
			wantErr: true,
		},
		{
			name:    "Invalid hash",
			secret:  secret,
			hash:    "invalidhash",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.ComparePasswordAndHash(tt.secret, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestHashPassword_LongSecrets(t *testing.T) {
	// past bcrypt's 72 byte input limit, up to the 100 character cap
	long := strings.Repeat("a1b2C3!", 14) + "xy"
	assert.Equal(t, 100, len(long))

	hash, err := accounts.HashPassword(long)
	assert.NoError(t, err)
	assert.NoError(t, accounts.ComparePasswordAndHash(long, hash))

	// the tail beyond byte 72 still matters
	other := long[:len(long)-2] + "zz"
	assert.ErrorIs(t, accounts.ComparePasswordAndHash(other, hash), accounts.ErrMismatchedHashAndPassword)
}

func TestComparePasswordAndHash_MismatchError(t *testing.T) {
	hash, err := accounts.HashPassword("original-secret")
	assert.NoError(t, err)

	err = accounts.ComparePasswordAndHash("different-secret", hash)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}
