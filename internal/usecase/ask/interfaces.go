package ask

import (
	"context"

	"github.com/tiledocs/agent-backend/internal/entity"
)

type EmbeddingConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type CompletionConnector interface {
	Complete(ctx context.Context, messages []entity.ChatMessage) (string, error)
}

type ChunkRepository interface {
	Search(ctx context.Context, queryEmbedding []float32, matchCount int, matchThreshold float64) ([]entity.RetrievedMatch, error)
	ListURLs(ctx context.Context) ([]string, error)
	PageContent(ctx context.Context, url string) (string, error)
}
