package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/tiledocs/agent-backend/internal/builder"
)

func main() {
	ingestor, cfg, logger, cleanup, err := builder.BuildIngestor()
	if err != nil {
		log.Fatal("Failed to build ingestor:", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ingestor.Run(ctx, cfg.CrawlCfg.BaseURL); err != nil {
		logger.Fatal("Ingestion failed: " + err.Error())
	}
}
