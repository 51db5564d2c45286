package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/handlers"
	"github.com/steelsons/league-feed/backend/internal/media"
	"github.com/steelsons/league-feed/backend/internal/middleware"
	"github.com/steelsons/league-feed/backend/internal/records"
	"github.com/steelsons/league-feed/backend/internal/session"
	"github.com/steelsons/league-feed/backend/internal/store"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, feedStore store.Store, pgdb *gorm.DB, sessions *session.Manager, pipeline *media.Pipeline, logger *zap.Logger) error {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Record tables: migrate and seed on startup
	recordsRepo, err := records.NewRepository(pgdb)
	if err != nil {
		return err
	}
	if err := records.Seed(pgdb); err != nil {
		return err
	}
	logger.Info("record tables migrated and seeded")

	// --- Unprotected routes for the PIN gate ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(sessions, logger)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Info("auth routes configured")

	// --- Protected routes (require an unlocked session) ---
	api := e.Group("/api/v1")
	api.Use(middleware.SessionAuthMiddleware(sessions))
	logger.Info("session middleware applied to /api/v1 group")

	// Feed routes
	postHandler := handlers.NewPostHandler(feedStore, logger)
	postHandler.RegisterPostRoutes(api)
	logger.Info("post routes configured")

	// Record book routes
	recordsHandler := handlers.NewRecordsHandler(recordsRepo)
	recordsHandler.RegisterRecordsRoutes(api)
	logger.Info("record routes configured")

	// Media routes
	mediaHandler := handlers.NewMediaHandler(pipeline, logger)
	mediaHandler.RegisterMediaRoutes(api)
	logger.Info("media routes configured")

	return nil
}
