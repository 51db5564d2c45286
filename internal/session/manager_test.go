package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"

	"github.com/steelsons/league-feed/backend/internal/models"
)

func newTestManager() *Manager {
	return NewManager("test-secret", "1234", "9999")
}

func TestUnlockGuestPIN(t *testing.T) {
	m := newTestManager()

	token, access, err := m.Unlock("1234")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleGuest, access)

	parsed, err := m.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleGuest, parsed)
}

func TestUnlockAdminPIN(t *testing.T) {
	m := newTestManager()

	token, access, err := m.Unlock("9999")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, access)

	parsed, err := m.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, parsed)
}

func TestUnlockWrongPIN(t *testing.T) {
	m := newTestManager()

	_, _, err := m.Unlock("0000")
	assert.ErrorIs(t, err, ErrBadPIN)

	_, _, err = m.Unlock("")
	assert.ErrorIs(t, err, ErrBadPIN)
}

func TestUnlockRejectsUnconfiguredPINs(t *testing.T) {
	// With no PINs configured, an empty submission must not match the empty
	// configured value and mint a token.
	m := NewManager("test-secret", "", "")

	_, _, err := m.Unlock("")
	assert.ErrorIs(t, err, ErrBadPIN)

	// Same with only the guest PIN configured
	m = NewManager("test-secret", "1234", "")
	_, _, err = m.Unlock("")
	assert.ErrorIs(t, err, ErrBadPIN)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	other := NewManager("other-secret", "1234", "9999")
	token, _, err := other.Unlock("1234")
	assert.NoError(t, err)

	_, err = newTestManager().Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	claims := &Claims{
		Access: string(models.RoleGuest),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-3 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	_, err = newTestManager().Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnknownAccess(t *testing.T) {
	claims := &Claims{
		Access: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	_, err = newTestManager().Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := newTestManager().Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
