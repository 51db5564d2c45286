package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/models"
	"github.com/steelsons/league-feed/backend/internal/session"
)

// AuthHandler handles the PIN gate.
type AuthHandler struct {
	sessions *session.Manager
	log      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: logger}
}

// RegisterAuthRoutes registers authentication-related routes.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/unlock", h.Unlock)
}

// Unlock exchanges the shared PIN for a session token. A wrong PIN is always
// a 401 with no hint about which PIN was closest.
func (h *AuthHandler) Unlock(c echo.Context) error {
	var req models.UnlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, access, err := h.sessions.Unlock(req.PIN)
	if err != nil {
		if errors.Is(err, session.ErrBadPIN) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect PIN")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.log.Info("device unlocked", zap.String("access", string(access)))
	return c.JSON(http.StatusOK, echo.Map{
		"token":     token,
		"access":    access,
		"expiresIn": int64(session.TokenTTL.Seconds()),
	})
}
