package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/tokens"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

func creds(u, p string) transport.Credentials {
	return transport.Credentials{Username: u, Password: p}
}

func TestAuthService_Register_SuccessAndConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	_, err = env.auth.Register(ctx, creds("alice", "Other123"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	msgs := env.events.Messages(events.TopicUsers)
	require.Len(t, msgs, 1)
	assert.Equal(t, events.UserRegistered, msgs[0].Event.(events.UserEvent).Type)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, c := range []transport.Credentials{
		creds("", "secret"),
		creds("  ", "secret"),
		creds("user", ""),
		creds("  ab  ", "secret"),
		creds(strings.Repeat("x", 65), "secret"),
	} {
		_, err := env.auth.Register(ctx, c)
		assert.ErrorIs(t, err, ErrValidation, "%q", c.Username)
	}

	user, err := env.auth.Register(ctx, creds("  abc  ", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "abc", user.Username)
}

func TestAuthService_Login_IssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	assert.False(t, res.IsAdmin)
	assert.True(t, res.AccessExp.After(time.Now()))

	access, err := tokens.AccessClaimsFromToken(res.AccessToken, env.auth.Issuer.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, "user", access.Role)

	refresh, err := tokens.RefreshClaimsFromToken(res.RefreshToken, env.auth.Issuer.RefreshSecret)
	require.NoError(t, err)
	stored, err := env.repo.FindRefreshByJTI(ctx, refresh.ID)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
	assert.NotEqual(t, res.RefreshToken, stored.TokenHash)
}

func TestAuthService_Login_WrongCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, creds("alice", "wrong-pass"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.Login(ctx, creds("nobody", "Secret123"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.Login(ctx, creds("", ""))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)

	oldClaims, err := tokens.RefreshClaimsFromToken(login.RefreshToken, env.auth.Issuer.RefreshSecret)
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	old, err := env.repo.FindRefreshByJTI(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	_, err = env.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "a rotated token cannot be reused")

	_, err = env.auth.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Refresh(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// well formed but never stored
	u := env.user(t, "ghost", false)
	signed, err := env.auth.Issuer.NewRefreshToken(u.ID, time.Now())
	require.NoError(t, err)
	_, err = env.auth.Refresh(ctx, signed.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LogOut_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)
	require.NoError(t, env.auth.LogOut(ctx, alice.ID, ""))

	login, err := env.auth.Login(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)

	require.NoError(t, env.auth.LogOut(ctx, alice.ID, login.RefreshToken))

	_, err = env.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LogOut_IgnoresOtherUsersToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)
	bob, err := env.auth.Register(ctx, creds("bob", "Secret123"))
	require.NoError(t, err)

	aliceLogin, err := env.auth.Login(ctx, creds("alice", "Secret123"))
	require.NoError(t, err)

	require.NoError(t, env.auth.LogOut(ctx, bob.ID, aliceLogin.RefreshToken))

	_, err = env.auth.Refresh(ctx, aliceLogin.RefreshToken)
	require.NoError(t, err, "alice's session survives bob's logout")
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	u := env.user(t, "alice", false)
	signed, err := env.auth.Issuer.NewAccessToken(u.ID, "user", time.Now())
	require.NoError(t, err)

	got, err := env.auth.Authenticate(ctx, signed.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	orphan, err := env.auth.Issuer.NewAccessToken(u.ID+100, "admin", time.Now())
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, orphan.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.auth.EnsureAdmin(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	res, err := env.auth.Login(ctx, creds("root", "rootpass"))
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	_, err = env.auth.Register(ctx, creds("bob", "bobpass1"))
	require.NoError(t, err)
	promoted, err := env.auth.EnsureAdmin(ctx, "bob", "ignored")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	_, err = env.auth.Login(ctx, creds("bob", "bobpass1"))
	require.NoError(t, err, "promotion keeps the existing password")
}
