package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
)

func newTestKeys(t *testing.T) *Keys {
	t.Helper()
	k, err := NewKeys("test-secret-with-some-length", "storefront", 5*time.Minute, time.Hour)
	require.NoError(t, err)
	return k
}

func TestIssueAndValidatePair(t *testing.T) {
	k := newTestKeys(t)

	pair, err := k.IssuePair(42, "alice", []string{RoleUser})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.True(t, pair.RefreshExpiry.After(pair.AccessExpiry))

	claims, err := k.ValidateToken(pair.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	refresh, err := k.ValidateToken(pair.Refresh, TokenRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestValidateRejectsWrongType(t *testing.T) {
	k := newTestKeys(t)
	pair, err := k.IssuePair(1, "bob", []string{RoleUser})
	require.NoError(t, err)

	_, err = k.ValidateToken(pair.Refresh, TokenAccess)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestValidateRejectsExpired(t *testing.T) {
	k := newTestKeys(t)
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return issuedAt }
	pair, err := k.IssuePair(1, "bob", nil)
	require.NoError(t, err)

	k.now = func() time.Time { return issuedAt.Add(6 * time.Minute) }
	_, err = k.ValidateToken(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = k.ValidateToken(pair.Refresh, TokenRefresh)
	assert.NoError(t, err)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	k := newTestKeys(t)
	other, err := NewKeys("another-secret-entirely", "storefront", time.Minute, time.Hour)
	require.NoError(t, err)
	pair, err := other.IssuePair(7, "mallory", []string{RoleAdmin})
	require.NoError(t, err)

	_, err = k.ValidateToken(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	k := newTestKeys(t)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "storefront",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: TokenAccess,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = k.ValidateToken(unsigned, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueAccessFromRefreshClaims(t *testing.T) {
	k := newTestKeys(t)
	pair, err := k.IssuePair(9, "carol", []string{RoleUser, RoleAdmin})
	require.NoError(t, err)
	refresh, err := k.ValidateToken(pair.Refresh, TokenRefresh)
	require.NoError(t, err)

	access, _, err := k.IssueAccess(refresh)
	require.NoError(t, err)
	claims, err := k.ValidateToken(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "9", claims.Subject)
	assert.True(t, claims.HasRole(RoleAdmin))
}

func TestNewKeysValidation(t *testing.T) {
	_, err := NewKeys("", "x", time.Minute, time.Minute)
	assert.Error(t, err)
	_, err = NewKeys("secret", "x", 0, time.Minute)
	assert.Error(t, err)
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevokerSweepsExpired(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	require.NoError(t, r.Revoke(ctx, "jti-2", time.Hour))
	now = now.Add(2 * time.Minute)
	require.NoError(t, r.Revoke(ctx, "jti-3", time.Minute))

	assert.Len(t, r.entries, 2)
	assert.NotContains(t, r.entries, "jti-1")
	revoked, err := r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, revoked)
}
