package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/colectra/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(users *memUsers, kv *memKV) *AuthService {
	return NewAuthService("test-secret", "admin@test.local", "admin-password", users, newMemWallets(), kv)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newMemUsers()
	svc := newAuthService(users, newMemKV())
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
		Name:     "Jane",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, domain.RoleClient, resp.User.Role)

	// Duplicate email conflicts.
	_, err = svc.Register(ctx, &domain.RegisterRequest{
		Email:    "jane@example.com",
		Password: "another-pass",
		Name:     "Jane Again",
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Code)

	// Credentials round-trip.
	login, err := svc.Login(ctx, "jane@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "jane@example.com", "wrong")
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
}

func TestRegisterOpensWallet(t *testing.T) {
	wallets := newMemWallets()
	svc := NewAuthService("test-secret", "admin@test.local", "admin-password", newMemUsers(), wallets, newMemKV())
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
		Name:     "Jane",
	})
	require.NoError(t, err)

	// The account is immediately able to top up and subscribe.
	w := wallets.byUser(resp.User.ID)
	require.NotNil(t, w)
	assert.Zero(t, w.Balance)

	// Admin-created accounts get one too.
	user, err := svc.CreateUser(ctx, &domain.CreateUserRequest{
		Email:    "op@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleAgency,
		Name:     "Operator",
	})
	require.NoError(t, err)
	assert.NotNil(t, wallets.byUser(user.ID))
}

func TestVerifyTokenClaims(t *testing.T) {
	svc := newAuthService(newMemUsers(), newMemKV())
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
		Name:     "Jane",
	})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Sub)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, domain.RoleClient, claims.Role)
	assert.NotEmpty(t, claims.JTI)

	_, err = svc.VerifyToken(ctx, "not-a-token")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	kv := newMemKV()
	svc := newAuthService(newMemUsers(), kv)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
		Name:     "Jane",
	})
	require.NoError(t, err)

	_, err = svc.VerifyToken(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Token))

	// The same token no longer verifies, but a fresh login works.
	_, err = svc.VerifyToken(ctx, resp.Token)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)

	login, err := svc.Login(ctx, "jane@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, login.Token)
	assert.NoError(t, err)
}

func TestSeedAdminIdempotent(t *testing.T) {
	users := newMemUsers()
	svc := newAuthService(users, newMemKV())
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx))
	require.NoError(t, svc.SeedAdmin(ctx))

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.RoleAdmin, all[0].Role)

	_, err = svc.Login(ctx, "admin@test.local", "admin-password")
	assert.NoError(t, err)
}

func TestCreateUserRequiresValidRole(t *testing.T) {
	svc := newAuthService(newMemUsers(), newMemKV())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &domain.CreateUserRequest{
		Email:    "op@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleAgency,
		Name:     "Operator",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgency, user.Role)

	_, err = svc.CreateUser(ctx, &domain.CreateUserRequest{
		Email:    "bad@example.com",
		Password: "s3cret-pass",
		Role:     "superuser",
		Name:     "Bad",
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
}
