package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

// MockIdentity implements accounts.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Kind() accounts.ProfileKind {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements accounts.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// testLogger swallows everything, for tests that do not assert on logs
type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}

// MockRevocations implements accounts.Revocations for testing
type MockRevocations struct {
	mock.Mock
}

func (m *MockRevocations) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	args := m.Called(ctx, fingerprint, expiresAt)
	return args.Error(0)
}

func (m *MockRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	args := m.Called(ctx, fingerprint)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevocations) Purge(ctx context.Context, now time.Time) error {
	args := m.Called(ctx, now)
	return args.Error(0)
}

const (
	sqliteCreateCustomers = `CREATE TABLE customers (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    secret_hash TEXT NOT NULL,
    phone_number TEXT,
    loggedin_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateManagers = `CREATE TABLE managers (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    secret_hash TEXT NOT NULL,
    tax_id TEXT NOT NULL,
    phone_number TEXT,
    loggedin_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateRevokedTokens = `CREATE TABLE revoked_tokens (
    fingerprint TEXT NOT NULL PRIMARY KEY,
    expires_at TIMESTAMP NOT NULL,
    revoked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{
		sqliteCreateCustomers,
		sqliteCreateManagers,
		sqliteCreateRevokedTokens,
	} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}
