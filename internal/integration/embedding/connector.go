package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/config"
	"github.com/tiledocs/agent-backend/internal/entity"
	"github.com/tiledocs/agent-backend/internal/integration/common"
	pkghttp "github.com/tiledocs/agent-backend/pkg/http"
)

type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Embed converts text into a fixed-length vector via the embedding provider.
// The input must be non-empty after trimming and the provider must return
// exactly the configured dimensionality; anything else is a hard failure,
// there is no fallback embedding path.
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed input must not be empty")
	}

	req := &entity.EmbeddingRequest{
		Model: c.config.Model,
		Input: text,
	}

	var resp entity.EmbeddingResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("malformed embedding response: no data entries")
	}

	vector := resp.Data[0].Embedding
	if len(vector) != c.config.Dimensions {
		return nil, fmt.Errorf("malformed embedding response: got %d dimensions, want %d",
			len(vector), c.config.Dimensions)
	}

	ctxzap.Debug(ctx, "embedding generated", zap.Int("dimensions", len(vector)))

	return vector, nil
}
