// Package session implements the shared-PIN access gate: a correct PIN is
// exchanged for a signed session token carrying a guest or admin access
// level. Everything downstream trusts that binary flag as given.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/steelsons/league-feed/backend/internal/models"
)

// Sessions expire after two hours, matching how long the site has always
// kept a device unlocked.
const TokenTTL = 2 * time.Hour

var (
	ErrBadPIN       = errors.New("incorrect PIN")
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// Manager verifies PINs and mints/parses session tokens.
type Manager struct {
	secret   []byte
	guestPIN string
	adminPIN string
}

// NewManager builds a manager from the configured PINs and signing secret.
func NewManager(secret, guestPIN, adminPIN string) *Manager {
	return &Manager{secret: []byte(secret), guestPIN: guestPIN, adminPIN: adminPIN}
}

// Unlock exchanges a PIN for a session token. The admin PIN wins when both
// are configured to the same value. An unconfigured (empty) PIN never
// matches, so an empty submission cannot unlock anything.
func (m *Manager) Unlock(pin string) (token string, access models.Role, err error) {
	switch {
	case pin == "":
		return "", "", ErrBadPIN
	case pin == m.adminPIN:
		access = models.RoleAdmin
	case pin == m.guestPIN:
		access = models.RoleGuest
	default:
		return "", "", ErrBadPIN
	}

	now := time.Now()
	claims := &Claims{
		Access: string(access),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return token, access, nil
}

// Parse validates a session token and returns its access level.
func (m *Manager) Parse(token string) (models.Role, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	switch models.Role(claims.Access) {
	case models.RoleAdmin:
		return models.RoleAdmin, nil
	case models.RoleGuest:
		return models.RoleGuest, nil
	}
	return "", ErrInvalidToken
}
