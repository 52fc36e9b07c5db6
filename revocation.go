package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// BunRevocations is the default Revocations backend, a revoked_tokens
// table with the fingerprint as primary key.
type BunRevocations struct {
	db bun.IDB
}

// NewBunRevocations creates a registry backed by the given database
func NewBunRevocations(db bun.IDB) *BunRevocations {
	return &BunRevocations{db: db}
}

var _ Revocations = (*BunRevocations)(nil)

// Revoke inserts a revocation entry. Re-revoking the same fingerprint is
// a no-op success; the primary key makes the insert the atomic arbiter.
func (r *BunRevocations) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	now := time.Now()
	entry := &RevokedToken{
		Fingerprint: fingerprint,
		ExpiresAt:   expiresAt,
		RevokedAt:   &now,
	}

	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (fingerprint) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record token revocation")
	}

	return nil
}

// IsRevoked reports registry membership for a fingerprint
func (r *BunRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.fingerprint = ?", fingerprint).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check token revocation")
	}

	return exists, nil
}

// Purge removes entries whose token expiry has passed. Entries still
// inside their validity window are never touched.
func (r *BunRevocations) Purge(ctx context.Context, now time.Time) error {
	_, err := r.db.NewDelete().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to purge revocation registry")
	}

	return nil
}
