package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/steelsons/league-feed/backend/internal/models"
	"github.com/steelsons/league-feed/backend/internal/session"
)

// AccessContextKey is where the session middleware stores the access level.
const AccessContextKey = "access"

// SessionAuthMiddleware checks for a valid session token minted by the PIN
// gate and stores the access level in the request context.
func SessionAuthMiddleware(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			access, err := sessions.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
			}

			c.Set(AccessContextKey, access)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose session is not an admin session. It
// must run after SessionAuthMiddleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AccessFromContext(c) != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

// AccessFromContext returns the access level set by the session middleware,
// defaulting to guest.
func AccessFromContext(c echo.Context) models.Role {
	if access, ok := c.Get(AccessContextKey).(models.Role); ok {
		return access
	}
	return models.RoleGuest
}
