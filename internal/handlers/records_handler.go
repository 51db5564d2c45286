package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/steelsons/league-feed/backend/internal/records"
)

// RecordsHandler serves the record book and championship history pages.
type RecordsHandler struct {
	repo records.Repository
}

// NewRecordsHandler creates a new RecordsHandler.
func NewRecordsHandler(repo records.Repository) *RecordsHandler {
	return &RecordsHandler{repo: repo}
}

// RegisterRecordsRoutes registers record-book routes.
func (h *RecordsHandler) RegisterRecordsRoutes(g *echo.Group) {
	g.GET("/records", h.ListRecords)
	g.GET("/history", h.ListChampionships)
}

// ListRecords returns the record book grouped for display: season records,
// then single-game, then streaks.
func (h *RecordsHandler) ListRecords(c echo.Context) error {
	entries, err := h.repo.ListRecords(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	grouped := map[string][]records.LeagueRecord{
		records.GroupSeason: {},
		records.GroupGame:   {},
		records.GroupStreak: {},
	}
	for _, entry := range entries {
		grouped[entry.Group] = append(grouped[entry.Group], entry)
	}
	return c.JSON(http.StatusOK, grouped)
}

// ListChampionships returns the title history, newest season first.
func (h *RecordsHandler) ListChampionships(c echo.Context) error {
	championships, err := h.repo.ListChampionships(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, championships)
}
