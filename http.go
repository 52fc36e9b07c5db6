package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

type tokenValidatorAdapter struct {
	auth Authenticator
}

func (a tokenValidatorAdapter) Validate(ctx context.Context, raw string) (jwtware.AuthClaims, error) {
	claims, err := a.auth.ValidateToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRoute builds the bearer token middleware for API routes. The
// validator goes through the authenticator so revoked tokens are
// rejected, not just expired or forged ones.
func ProtectedRoute(auther Authenticator, cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenValidator: tokenValidatorAdapter{auth: auther},
	})
}

// GetClaims pulls the validated claims the middleware stored in the
// request locals.
func GetClaims(c router.Context, contextKey string) (AuthClaims, error) {
	val := c.Locals(contextKey)
	if val == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	claims, ok := val.(AuthClaims)
	if !ok {
		return nil, errors.New("locals entry is not AuthClaims", errors.CategoryInternal).
			WithTextCode("BAD_CONTEXT_VALUE")
	}

	return claims, nil
}

// GetRawToken returns the bearer token the middleware extracted from
// the request.
func GetRawToken(c router.Context, contextKey string) (string, error) {
	val := c.Locals(contextKey + "_token")
	if val == nil {
		return "", ErrInvalidOrExpiredToken
	}

	raw, ok := val.(string)
	if !ok || raw == "" {
		return "", ErrInvalidOrExpiredToken
	}

	return raw, nil
}
