package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileKind discriminates customer and manager identities
type ProfileKind = string

const (
	// KindCustomer identifies rows in the customers store
	KindCustomer ProfileKind = "C"
	// KindManager identifies rows in the managers store
	KindManager ProfileKind = "G"
)

// ParseProfileKind validates a raw kind value, tolerating case and
// surrounding whitespace
func ParseProfileKind(raw string) (ProfileKind, bool) {
	kind := strings.ToUpper(strings.TrimSpace(raw))
	switch kind {
	case KindCustomer, KindManager:
		return kind, true
	}
	return "", false
}

// Customer is the customer identity model
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	SecretHash    string     `bun:"secret_hash,notnull" json:"-"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identity adapts the record for token issuance
func (c *Customer) Identity() Identity {
	return authIdentity{
		id:    c.ID.String(),
		name:  c.Name,
		email: c.Email,
		kind:  KindCustomer,
	}
}

// Manager is the manager identity model. Managers additionally carry a
// tax id, required at registration.
type Manager struct {
	bun.BaseModel `bun:"table:managers,alias:mgr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	SecretHash    string     `bun:"secret_hash,notnull" json:"-"`
	TaxID         string     `bun:"tax_id,notnull" json:"tax_id,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identity adapts the record for token issuance
func (m *Manager) Identity() Identity {
	return authIdentity{
		id:    m.ID.String(),
		name:  m.Name,
		email: m.Email,
		kind:  KindManager,
	}
}

// RevokedToken is a revocation registry entry. Fingerprint is derived
// from the token signature; ExpiresAt mirrors the token expiry so the
// entry can be purged once the token would be rejected anyway.
type RevokedToken struct {
	bun.BaseModel `bun:"table:revoked_tokens,alias:rvt"`
	Fingerprint   string     `bun:"fingerprint,pk" json:"fingerprint,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero,default:current_timestamp" json:"revoked_at,omitempty"`
}

type authIdentity struct {
	id    string
	name  string
	email string
	kind  ProfileKind
}

func (a authIdentity) ID() string        { return a.id }
func (a authIdentity) Name() string      { return a.name }
func (a authIdentity) Email() string     { return a.email }
func (a authIdentity) Kind() ProfileKind { return a.kind }

var _ Identity = authIdentity{}
