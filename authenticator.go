package accounts

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Auther struct {
	repo         RepositoryManager
	signingKey   []byte
	tokenTTL     int
	issuer       string
	audience     []string
	logger       Logger
	tokenService TokenService
	revocations  Revocations
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:         repo,
		signingKey:   []byte(opts.GetSigningKey()),
		tokenTTL:     opts.GetTokenExpiration(),
		audience:     opts.GetAudience(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		tokenService: tokenService,
		revocations:  noopRevocations{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenTTL,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenService sets a custom token service, replacing the one built
// from the configuration.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	s.tokenService = service
	return s
}

// WithRevocations wires a revocation registry. Without one, issued
// tokens stay valid until they expire.
func (s *Auther) WithRevocations(registry Revocations) *Auther {
	if registry == nil {
		registry = noopRevocations{}
	}
	s.revocations = registry
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

var _ Authenticator = (*Auther)(nil)

// Register creates a new identity in the store matching input.Kind and
// returns it along with a freshly minted session token. The email only
// needs to be unique within its own store.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (Identity, string, error) {
	hash, err := HashPassword(input.Secret)
	if err != nil {
		s.logger.Error("Register hash secret error", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to hash secret")
	}

	var identity Identity

	err = s.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		switch input.Kind {
		case KindCustomer:
			if _, err := s.repo.Customers().GetByEmailTx(ctx, tx, input.Email); err == nil {
				return ErrDuplicateEmail
			} else if !repository.IsRecordNotFound(err) {
				return err
			}

			record, err := s.repo.Customers().RegisterTx(ctx, tx, &Customer{
				Name:       input.Name,
				Email:      input.Email,
				SecretHash: hash,
				Phone:      input.Phone,
			})
			if err != nil {
				return err
			}
			identity = record.Identity()

		case KindManager:
			if _, err := s.repo.Managers().GetByEmailTx(ctx, tx, input.Email); err == nil {
				return ErrDuplicateEmail
			} else if !repository.IsRecordNotFound(err) {
				return err
			}

			record, err := s.repo.Managers().RegisterTx(ctx, tx, &Manager{
				Name:       input.Name,
				Email:      input.Email,
				SecretHash: hash,
				TaxID:      input.TaxID,
				Phone:      input.Phone,
			})
			if err != nil {
				return err
			}
			identity = record.Identity()

		default:
			return errors.New("unknown profile kind", errors.CategoryBadInput).
				WithTextCode("UNKNOWN_PROFILE_KIND").
				WithMetadata(map[string]any{
					"profile_kind": input.Kind,
				})
		}

		return nil
	})

	if err != nil {
		if IsDuplicateEmailError(err) || isUniqueViolation(err) {
			s.logger.Warn("Register duplicate email", "email", input.Email, "kind", input.Kind)
			return nil, "", ErrDuplicateEmail
		}
		s.logger.Error("Register error", "error", err)
		return nil, "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Register token generation error", "error", err)
		return nil, "", ErrTokenOperationFailed
	}

	return identity, token, nil
}

// Login verifies the credentials against the store matching kind. Any
// failure, unknown email or bad secret alike, comes back as
// ErrInvalidCredentials so callers can not probe which emails exist.
func (s *Auther) Login(ctx context.Context, kind ProfileKind, email, secret string) (Identity, string, error) {
	identity, hash, err := s.findCredentials(ctx, kind, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// burn a comparison so both paths cost the same
			_ = ComparePasswordAndHash(secret, dummySecretHash)
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("Login lookup error", "error", err)
		return nil, "", err
	}

	if err := ComparePasswordAndHash(secret, hash); err != nil {
		s.logger.Warn("Login secret mismatch", "email", email, "kind", kind)
		return nil, "", ErrInvalidCredentials
	}

	s.trackLogin(ctx, identity)

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return nil, "", ErrTokenOperationFailed
	}

	return identity, token, nil
}

// ValidateToken checks signature, expiry, and the revocation registry.
func (s *Auther) ValidateToken(ctx context.Context, raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return nil, err
	}

	fingerprint, err := TokenFingerprint(raw)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	revoked, err := s.revocations.IsRevoked(ctx, fingerprint)
	if err != nil {
		s.logger.Error("ValidateToken revocation check error", "error", err)
		return nil, ErrTokenOperationFailed
	}

	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Authenticate resolves the live identity behind a token. Tokens whose
// subject no longer exists are treated the same as invalid tokens.
func (s *Auther) Authenticate(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.ValidateToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	identity, err := s.findIdentity(ctx, claims.ProfileKind(), claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Warn("Authenticate subject no longer exists", "subject", claims.UserID())
			return nil, ErrInvalidOrExpiredToken
		}
		s.logger.Error("Authenticate lookup error", "error", err)
		return nil, err
	}

	return identity, nil
}

// Logout revokes the token. Logging out twice with the same token
// succeeds both times; the registry insert is the idempotency point.
func (s *Auther) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return err
	}

	fingerprint, err := TokenFingerprint(raw)
	if err != nil {
		return ErrTokenMalformed
	}

	if err := s.revocations.Revoke(ctx, fingerprint, claims.Expires()); err != nil {
		s.logger.Error("Logout revocation error", "error", err)
		return ErrTokenOperationFailed
	}

	// opportunistic cleanup, failures only get logged
	if err := s.revocations.Purge(ctx, time.Now()); err != nil {
		s.logger.Warn("Logout purge error", "error", err)
	}

	return nil
}

// Refresh mints a new token for the holder of a still valid one and
// revokes the old token so both can not circulate at once.
func (s *Auther) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.ValidateToken(ctx, raw)
	if err != nil {
		return "", err
	}

	identity, err := s.findIdentity(ctx, claims.ProfileKind(), claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidOrExpiredToken
		}
		s.logger.Error("Refresh lookup error", "error", err)
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Refresh token generation error", "error", err)
		return "", ErrTokenOperationFailed
	}

	fingerprint, err := TokenFingerprint(raw)
	if err != nil {
		return "", ErrTokenMalformed
	}

	if err := s.revocations.Revoke(ctx, fingerprint, claims.Expires()); err != nil {
		s.logger.Error("Refresh revocation error", "error", err)
		return "", ErrTokenOperationFailed
	}

	return token, nil
}

func (s *Auther) findCredentials(ctx context.Context, kind ProfileKind, email string) (Identity, string, error) {
	switch kind {
	case KindCustomer:
		record, err := s.repo.Customers().GetByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		return record.Identity(), record.SecretHash, nil
	case KindManager:
		record, err := s.repo.Managers().GetByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		return record.Identity(), record.SecretHash, nil
	}

	return nil, "", repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"profile_kind": kind,
		})
}

func (s *Auther) findIdentity(ctx context.Context, kind ProfileKind, id string) (Identity, error) {
	switch kind {
	case KindCustomer:
		record, err := s.repo.Customers().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return record.Identity(), nil
	case KindManager:
		record, err := s.repo.Managers().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return record.Identity(), nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"profile_kind": kind,
		})
}

func (s *Auther) trackLogin(ctx context.Context, identity Identity) {
	id, err := uuid.Parse(identity.ID())
	if err != nil {
		return
	}

	switch identity.Kind() {
	case KindCustomer:
		err = s.repo.Customers().TrackSuccessfulLogin(ctx, &Customer{ID: id})
	case KindManager:
		err = s.repo.Managers().TrackSuccessfulLogin(ctx, &Manager{ID: id})
	}

	if err != nil {
		s.logger.Warn("track login error", "error", err)
	}
}

// bcrypt hash of a random throwaway value, used to equalize timing on
// unknown emails
var dummySecretHash = "$2a$14$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// noopRevocations never revokes anything
type noopRevocations struct{}

func (noopRevocations) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	return nil
}

func (noopRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	return false, nil
}

func (noopRevocations) Purge(ctx context.Context, now time.Time) error {
	return nil
}
