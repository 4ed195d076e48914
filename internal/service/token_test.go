package service

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, expiresAt, err := m.Issue(&entity.User{ID: "u1", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour), expiresAt)

	principal, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)
	assert.True(t, principal.Can(entity.CapManageOrders))
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(&entity.User{ID: "u1", Role: entity.RoleCustomer})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("another-secret", time.Hour)

	token, _, err := other.Issue(&entity.User{ID: "u1", Role: entity.RoleCustomer})
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = m.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1", Role: "root"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Parse(badRole)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
