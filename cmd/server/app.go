package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/irislabs/iris-api/internal/config"
	"github.com/irislabs/iris-api/internal/gateway"
	"github.com/irislabs/iris-api/internal/platform/ollama"
	"github.com/irislabs/iris-api/internal/platform/postgres"
	"github.com/irislabs/iris-api/internal/service"
	"github.com/irislabs/iris-api/internal/service/auth"
	"github.com/irislabs/iris-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown. There is exactly one
// instance per process, constructed explicitly in main and passed by
// reference to the router.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore     store.UserStore
	analysisStore store.AnalysisStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	analysisService  service.AnalysisService

	// Inference backend and the admission gateway guarding it
	aiClient *ollama.Client
	gateway  *gateway.Gateway
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.analysisStore = postgres.NewPostgresAnalysisStore(db, logger)

	// Initialize the inference backend client and verify it is reachable.
	// A cold backend is not fatal: the gateway re-probes before every
	// admitted unit of work, so the server can start ahead of the model.
	app.aiClient = ollama.NewClient(cfg.AI, logger)
	if reachable, modelReady, _ := app.aiClient.Probe(ctx); !reachable {
		logger.Warn("inference service unreachable at startup",
			"base_url", cfg.AI.BaseURL)
	} else if !modelReady {
		logger.Warn("configured model not ready at startup",
			"model", cfg.AI.Model)
	}

	// Initialize the bounded inference gateway
	app.gateway = gateway.New(gateway.Config{
		MaxConcurrent: cfg.AI.MaxConcurrent,
		MaxQueueSize:  cfg.AI.MaxQueueSize,
		QueueTimeout:  time.Duration(cfg.AI.QueueTimeoutSeconds) * time.Second,
	}, app.aiClient, logger)
	logger.Info("Inference gateway initialized",
		"max_concurrent", cfg.AI.MaxConcurrent,
		"max_queue_size", cfg.AI.MaxQueueSize,
		"queue_timeout_seconds", cfg.AI.QueueTimeoutSeconds)

	// Initialize analysis service
	analysisRepo := service.NewAnalysisRepositoryAdapter(app.analysisStore, db)
	app.analysisService, err = service.NewAnalysisService(
		analysisRepo,
		app.gateway,
		app.aiClient,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Close the gateway first so queued submissions resolve before the
	// database goes away.
	if app.gateway != nil {
		app.gateway.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
