package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/api"
	askapi "github.com/tiledocs/agent-backend/internal/api/ask"
	"github.com/tiledocs/agent-backend/internal/config"
	"github.com/tiledocs/agent-backend/internal/integration/completion"
	"github.com/tiledocs/agent-backend/internal/integration/embedding"
	"github.com/tiledocs/agent-backend/internal/pkg/ratelimit"
	"github.com/tiledocs/agent-backend/internal/pkg/validator"
	"github.com/tiledocs/agent-backend/internal/repository"
	"github.com/tiledocs/agent-backend/internal/usecase/ask"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	chunkRepo := repository.NewChunkPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external provider connectors (with mock support)
	var embeddingConnector ask.EmbeddingConnector
	var completionConnector ask.CompletionConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external providers")
		embeddingConnector = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimensions, logger)
		completionConnector = completion.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external providers")
		embeddingConnector = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		completionConnector = completion.NewConnector(cfg.CompletionCfg, logger)
	}

	// Initialize the rate limiter shared by all requests
	limiter := ratelimit.New(cfg.RateLimitCfg.PerWindow, cfg.RateLimitCfg.Window, cfg.RateLimitCfg.PerDay)

	// Initialize validators
	reqValidator := validator.New()

	// Initialize use case
	askUC := ask.NewUsecase(
		chunkRepo,
		embeddingConnector,
		completionConnector,
		ask.Config{
			SystemPrompt:    cfg.SystemPrompt,
			MatchCount:      cfg.MatchCount,
			MatchThreshold:  cfg.MatchThreshold,
			MaxContextChars: cfg.MaxContextChars,
		},
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	askHandler := askapi.NewHandler(askUC, reqValidator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(askHandler, cfg.APIBearerToken, limiter, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
