package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/media"
	"github.com/steelsons/league-feed/backend/internal/router"
	"github.com/steelsons/league-feed/backend/internal/session"
	"github.com/steelsons/league-feed/backend/internal/store"
	"github.com/steelsons/league-feed/backend/pkg/config"
	"github.com/steelsons/league-feed/backend/pkg/firebase"
	"github.com/steelsons/league-feed/backend/pkg/logger"
	"github.com/steelsons/league-feed/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Pick the feed's document store backend
	ctx := context.Background()
	var feedStore store.Store
	switch cfg.StoreBackend {
	case "mongo":
		feedStore = store.NewMongoStore(db.Mongo.Database("leaguefeed"))
		zapLogger.Info("feed store backed by MongoDB")
	default:
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirestoreProjectID)
		if err != nil {
			zapLogger.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		defer firebaseApp.Close()
		feedStore = store.NewFirestoreStore(firebaseApp.Firestore)
		zapLogger.Info("feed store backed by Firestore")
	}

	sessions := session.NewManager(cfg.JWTSecret, cfg.GuestPIN, cfg.AdminPIN)
	pipeline := media.NewPipeline(nil, cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, zapLogger)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, feedStore, db.Postgres, sessions, pipeline, zapLogger); err != nil {
		zapLogger.Fatal("Failed to configure routes", zap.Error(err))
	}

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
