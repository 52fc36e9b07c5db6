package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Name() string
	Email() string
	Kind() ProfileKind
}

// RegisterInput carries the fields needed to create a new identity.
// TaxID is required only for managers.
type RegisterInput struct {
	Kind   ProfileKind
	Name   string
	Email  string
	Secret string
	TaxID  string
	Phone  string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (Identity, string, error)
	Login(ctx context.Context, kind ProfileKind, email, secret string) (Identity, string, error)
	Authenticate(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (string, error)
	ValidateToken(ctx context.Context, token string) (AuthClaims, error)
}

// TokenService abstracts JWT generation and validation
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// Revocations is the registry of tokens invalidated before expiry.
// Revoke must be idempotent; the registry may drop entries once the
// underlying token's natural expiry has passed, never earlier.
type Revocations interface {
	Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
	Purge(ctx context.Context, now time.Time) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetAPIPrefix() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
