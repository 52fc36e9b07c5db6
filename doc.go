// Package accounts provides session authentication and account management
// for two disjoint identity stores: customers and managers.
//
// Identity stores:
//   - Customers and Managers live in separate tables, each with its own
//     unique email constraint. The same address may exist once per kind;
//     uniqueness is never enforced across kinds. The profile kind ("C" or
//     "G") is an explicit input to login and registration, so the store is
//     always selected up front rather than inferred from the email.
//
// Session tokens:
//   - TokenService mints self-contained HS256 bearer tokens carrying the
//     subject id, profile kind, issuance and expiry. Tokens move through
//     Issued -> Active -> {Expired | Revoked}; a refresh revokes the old
//     token in the same call that mints its replacement.
//
// Revocation:
//   - Revocations tracks tokens invalidated before their natural expiry,
//     keyed by a fingerprint derived from the token signature. Backends
//     exist for Bun (default) and Redis; both make revoke idempotent and
//     support purging entries once the underlying token has expired.
package accounts
