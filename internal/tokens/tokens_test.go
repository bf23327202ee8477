package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return &Issuer{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestIssuer_NewAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	now := time.Now().UTC()

	signed, err := iss.NewAccessToken(7, "admin", now)
	require.NoError(t, err)
	require.NotEmpty(t, signed.Token)

	claims, err := AccessClaimsFromToken(signed.Token, iss.AccessSecret)
	require.NoError(t, err)

	assert.Equal(t, "admin", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestIssuer_NewRefreshToken_SetsJTI(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	now := time.Now().UTC()

	first, err := iss.NewRefreshToken(3, now)
	require.NoError(t, err)
	second, err := iss.NewRefreshToken(3, now)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	claims, err := RefreshClaimsFromToken(first.Token, iss.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claims.ID)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 3, id)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()

	expired, err := iss.NewAccessToken(1, "user", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired.Token, iss.AccessSecret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	valid, err := iss.NewAccessToken(1, "user", time.Now())
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(valid.Token, []byte("other-secret"))
	require.Error(t, err)

	refresh, err := iss.NewRefreshToken(1, time.Now())
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(refresh.Token, iss.AccessSecret)
	require.Error(t, err, "refresh token must not pass as access token")

	_, err = AccessClaimsFromToken("garbage", iss.AccessSecret)
	require.Error(t, err)
}

func TestUserID_RejectsBadSubject(t *testing.T) {
	t.Parallel()

	for _, sub := range []string{"", "0", "-1", "abc"} {
		c := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, sub)
	}
}
