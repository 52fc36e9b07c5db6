package accounts

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// secretHashCost is the bcrypt work factor for every stored secret.
const secretHashCost = 14

// bcrypt reads at most 72 bytes of input and rejects anything longer,
// while secrets may be up to 100 characters. Longer input is folded
// through sha256 first; the digest is base64 encoded to keep NUL bytes
// out of the bcrypt input.
func secretBytes(secret string) []byte {
	b := []byte(secret)
	if len(b) <= 72 {
		return b
	}
	sum := sha256.Sum256(b)
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword(secretBytes(password), secretHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), secretBytes(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
