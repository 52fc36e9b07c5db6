package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrDuplicateEmail is returned when the email already exists in the
// target identity store. Uniqueness is per kind, not global.
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the single error returned for any login
// failure: unknown email, wrong secret, or wrong kind. Callers must not
// be able to tell which field was wrong.
var ErrInvalidCredentials = goerrors.New("invalid email or secret", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidOrExpiredToken collapses every token validation failure
// (malformed, expired, revoked) into one externally visible error.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode("INVALID_OR_EXPIRED_TOKEN").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenOperationFailed signals a revocation registry write failure.
var ErrTokenOperationFailed = goerrors.New("unable to invalidate token", goerrors.CategoryInternal).
	WithTextCode("TOKEN_OPERATION_FAILED").
	WithCode(goerrors.CodeInternal)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired marks a token past its expiry. Internal; callers see
// ErrInvalidOrExpiredToken.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed marks a structurally invalid token or a signature
// mismatch. Internal; callers see ErrInvalidOrExpiredToken.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked marks a token present in the revocation registry.
// Internal; callers see ErrInvalidOrExpiredToken.
var ErrTokenRevoked = goerrors.New("token has been revoked", goerrors.CategoryAuth).
	WithTextCode("TOKEN_REVOKED").
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when the secret does not
// match the stored hash.
var ErrMismatchedHashAndPassword = goerrors.New("mismatched secret and hash", goerrors.CategoryAuth).
	WithTextCode("SECRET_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty secrets before hashing
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_SECRET").
	WithCode(goerrors.CodeBadRequest)

// IsTokenValidationError reports whether err is one of the internal
// token failures that collapse to ErrInvalidOrExpiredToken.
func IsTokenValidationError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}

	switch rich.TextCode {
	case ErrTokenExpired.TextCode, ErrTokenMalformed.TextCode, ErrTokenRevoked.TextCode:
		return true
	}
	return false
}

// IsDuplicateEmailError reports whether err carries the duplicate email
// text code, including wrapped storage conflicts.
func IsDuplicateEmailError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == ErrDuplicateEmail.TextCode
}
