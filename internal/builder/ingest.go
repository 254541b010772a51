package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/config"
	"github.com/tiledocs/agent-backend/internal/ingest"
	"github.com/tiledocs/agent-backend/internal/integration/completion"
	"github.com/tiledocs/agent-backend/internal/integration/embedding"
	"github.com/tiledocs/agent-backend/internal/repository"
)

// BuildIngestor creates the documentation ingestion pipeline. The returned
// cleanup func closes the database pool.
func BuildIngestor() (*ingest.Ingestor, *config.Config, *zap.Logger, func(), error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building ingestor",
		zap.String("environment", cfg.Environment),
		zap.String("base_url", cfg.CrawlCfg.BaseURL),
	)

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("setup database: %w", err)
	}

	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	chunkRepo := repository.NewChunkPostgres(db)

	var embeddingConnector ingest.EmbeddingConnector
	var annotationConnector ingest.AnnotationConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external providers")
		embeddingConnector = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimensions, logger)
		annotationConnector = completion.NewMockConnector(logger)
	} else {
		embeddingConnector = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		annotationConnector = completion.NewConnector(cfg.CompletionCfg, logger)
	}

	crawler := ingest.NewCrawler(cfg.CrawlCfg.MaxPages, logger)

	ingestor := ingest.NewIngestor(
		crawler,
		chunkRepo,
		embeddingConnector,
		annotationConnector,
		cfg.CrawlCfg.ChunkSize,
		cfg.CrawlCfg.Concurrency,
		logger,
	)

	cleanup := func() {
		db.Close()
	}

	return ingestor, cfg, logger, cleanup, nil
}
