package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testAuthConfig struct{}

func (testAuthConfig) GetSigningKey() string    { return "auth-test-signing-key" }
func (testAuthConfig) GetSigningMethod() string { return "HS256" }
func (testAuthConfig) GetContextKey() string    { return "user" }
func (testAuthConfig) GetTokenExpiration() int  { return 60 }
func (testAuthConfig) GetIssuer() string        { return "auth-test" }
func (testAuthConfig) GetAudience() []string    { return []string{"auth-test"} }
func (testAuthConfig) GetAuthScheme() string    { return "Bearer" }
func (testAuthConfig) GetAPIPrefix() string     { return "/api/v1" }

func setupAuther(t *testing.T) (*accounts.Auther, accounts.RepositoryManager, func()) {
	t.Helper()

	bunDB, cleanup := setupTestDB(t)

	repo := accounts.NewRepositoryManager(bunDB)
	auther := accounts.NewAuthenticator(repo, testAuthConfig{}).
		WithLogger(testLogger{}).
		WithRevocations(accounts.NewBunRevocations(bunDB))

	return auther, repo, cleanup
}

func customerInput(email string) accounts.RegisterInput {
	return accounts.RegisterInput{
		Kind:   accounts.KindCustomer,
		Name:   "Test Customer",
		Email:  email,
		Secret: "super-secret-1",
	}
}

func managerInput(email string) accounts.RegisterInput {
	return accounts.RegisterInput{
		Kind:   accounts.KindManager,
		Name:   "Test Manager",
		Email:  email,
		Secret: "super-secret-1",
		TaxID:  "12345678000199",
	}
}

func TestAuther_Register(t *testing.T) {
	auther, repo, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("registers a customer and returns a usable token", func(t *testing.T) {
		identity, token, err := auther.Register(ctx, customerInput("customer@example.com"))

		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.NotEmpty(t, token)
		assert.Equal(t, accounts.KindCustomer, identity.Kind())
		assert.Equal(t, "customer@example.com", identity.Email())

		claims, err := auther.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())
		assert.Equal(t, accounts.KindCustomer, claims.ProfileKind())
	})

	t.Run("registers a manager with a tax id", func(t *testing.T) {
		identity, token, err := auther.Register(ctx, managerInput("manager@example.com"))

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, accounts.KindManager, identity.Kind())

		record, err := repo.Managers().GetByEmail(ctx, "manager@example.com")
		require.NoError(t, err)
		assert.Equal(t, "12345678000199", record.TaxID)
	})

	t.Run("never stores the cleartext secret", func(t *testing.T) {
		record, err := repo.Customers().GetByEmail(ctx, "customer@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, "super-secret-1", record.SecretHash)
		assert.NoError(t, accounts.ComparePasswordAndHash("super-secret-1", record.SecretHash))
	})

	t.Run("rejects a duplicate email within the same store", func(t *testing.T) {
		_, _, err := auther.Register(ctx, customerInput("customer@example.com"))

		require.Error(t, err)
		assert.True(t, accounts.IsDuplicateEmailError(err))
	})

	t.Run("duplicate check is case insensitive", func(t *testing.T) {
		_, _, err := auther.Register(ctx, customerInput("CUSTOMER@example.com"))

		require.Error(t, err)
		assert.True(t, accounts.IsDuplicateEmailError(err))
	})

	t.Run("same email is allowed across stores", func(t *testing.T) {
		_, _, err := auther.Register(ctx, managerInput("customer@example.com"))

		assert.NoError(t, err)
	})

	t.Run("rejects an unknown profile kind", func(t *testing.T) {
		input := customerInput("unknown-kind@example.com")
		input.Kind = "X"

		_, _, err := auther.Register(ctx, input)

		assert.Error(t, err)
	})
}

func TestAuther_Login(t *testing.T) {
	auther, _, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	_, _, err := auther.Register(ctx, customerInput("login@example.com"))
	require.NoError(t, err)

	t.Run("logs in with valid credentials", func(t *testing.T) {
		identity, token, err := auther.Login(ctx, accounts.KindCustomer, "login@example.com", "super-secret-1")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "login@example.com", identity.Email())
		assert.Equal(t, "Test Customer", identity.Name())
	})

	t.Run("is case insensitive about the email", func(t *testing.T) {
		_, token, err := auther.Login(ctx, accounts.KindCustomer, "LOGIN@example.com", "super-secret-1")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong secret comes back as invalid credentials", func(t *testing.T) {
		_, _, err := auther.Login(ctx, accounts.KindCustomer, "login@example.com", "wrong-secret")

		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
	})

	t.Run("unknown email comes back as the same error", func(t *testing.T) {
		_, _, err := auther.Login(ctx, accounts.KindCustomer, "nobody@example.com", "super-secret-1")

		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
	})

	t.Run("kinds do not share credentials", func(t *testing.T) {
		_, _, err := auther.Login(ctx, accounts.KindManager, "login@example.com", "super-secret-1")

		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
	})
}

func TestAuther_Authenticate(t *testing.T) {
	auther, repo, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	identity, token, err := auther.Register(ctx, customerInput("whoami@example.com"))
	require.NoError(t, err)

	t.Run("resolves the live identity behind a token", func(t *testing.T) {
		resolved, err := auther.Authenticate(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, identity.ID(), resolved.ID())
		assert.Equal(t, "whoami@example.com", resolved.Email())
		assert.Equal(t, accounts.KindCustomer, resolved.Kind())
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := auther.Authenticate(ctx, "not-a-token")

		require.Error(t, err)
		assert.True(t, accounts.IsTokenValidationError(err))
	})

	t.Run("token for a removed account stops working", func(t *testing.T) {
		removed, removedToken, err := auther.Register(ctx, customerInput("gone@example.com"))
		require.NoError(t, err)

		record, err := repo.Customers().GetByID(ctx, removed.ID())
		require.NoError(t, err)
		require.NoError(t, repo.Customers().Remove(ctx, record.ID))

		_, err = auther.Authenticate(ctx, removedToken)
		assert.ErrorIs(t, err, accounts.ErrInvalidOrExpiredToken)
	})
}

func TestAuther_Logout(t *testing.T) {
	auther, _, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	_, token, err := auther.Register(ctx, customerInput("logout@example.com"))
	require.NoError(t, err)

	t.Run("revokes the token", func(t *testing.T) {
		require.NoError(t, auther.Logout(ctx, token))

		_, err := auther.ValidateToken(ctx, token)
		require.Error(t, err)
		assert.True(t, accounts.IsTokenValidationError(err))
	})

	t.Run("is idempotent", func(t *testing.T) {
		assert.NoError(t, auther.Logout(ctx, token))
	})

	t.Run("other sessions stay valid", func(t *testing.T) {
		_, fresh, err := auther.Login(ctx, accounts.KindCustomer, "logout@example.com", "super-secret-1")
		require.NoError(t, err)

		_, err = auther.ValidateToken(ctx, fresh)
		assert.NoError(t, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		err := auther.Logout(ctx, "garbage")
		assert.True(t, accounts.IsTokenValidationError(err))
	})
}

func TestAuther_Refresh(t *testing.T) {
	auther, _, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	identity, token, err := auther.Register(ctx, customerInput("refresh@example.com"))
	require.NoError(t, err)

	t.Run("mints a new token and retires the old one", func(t *testing.T) {
		fresh, err := auther.Refresh(ctx, token)

		require.NoError(t, err)
		assert.NotEmpty(t, fresh)
		assert.NotEqual(t, token, fresh)

		claims, err := auther.ValidateToken(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())

		// old token is now revoked
		_, err = auther.ValidateToken(ctx, token)
		require.Error(t, err)
		assert.True(t, accounts.IsTokenValidationError(err))
	})

	t.Run("a revoked token cannot refresh", func(t *testing.T) {
		_, err := auther.Refresh(ctx, token)

		require.Error(t, err)
		assert.True(t, accounts.IsTokenValidationError(err))
	})
}

func TestAuther_ValidateToken(t *testing.T) {
	auther, _, cleanup := setupAuther(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		other := accounts.NewTokenService(
			[]byte("some-other-key"),
			60,
			"auth-test",
			jwt.ClaimStrings{"auth-test"},
			testLogger{},
		)

		identity := &MockIdentity{}
		identity.On("ID").Return("user-123")
		identity.On("Kind").Return(accounts.KindCustomer)

		forged, err := other.Generate(identity)
		require.NoError(t, err)

		_, err = auther.ValidateToken(ctx, forged)
		require.Error(t, err)
		assert.True(t, accounts.IsTokenValidationError(err))
	})

	t.Run("revocation registry failures read as server errors", func(t *testing.T) {
		broken := &MockRevocations{}
		broken.On("IsRevoked", mock.Anything, mock.Anything).
			Return(false, errors.New("registry offline"))

		// stand up a separate auther sharing the same stores
		bunDB, cleanupDB := setupTestDB(t)
		defer cleanupDB()

		repo := accounts.NewRepositoryManager(bunDB)
		flaky := accounts.NewAuthenticator(repo, testAuthConfig{}).
			WithLogger(testLogger{}).
			WithRevocations(broken)

		_, token, err := flaky.Register(context.Background(), customerInput("flaky@example.com"))
		require.NoError(t, err)

		_, err = flaky.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, accounts.ErrTokenOperationFailed)
	})
}
