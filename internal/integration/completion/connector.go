package completion

import (
	"context"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/config"
	"github.com/tiledocs/agent-backend/internal/entity"
	"github.com/tiledocs/agent-backend/internal/integration/common"
	pkghttp "github.com/tiledocs/agent-backend/pkg/http"
)

type Connector struct {
	config    config.CompletionConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.CompletionConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Complete sends the message sequence to the completion provider and
// returns the generated text verbatim.
func (c *Connector) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	req := &entity.CompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	text, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "completion generated", zap.Int("result_length", len(text)))

	return text, nil
}

// CompleteJSON is Complete with the provider's JSON output mode enabled.
// Used by the ingestion pipeline for chunk title/summary extraction.
func (c *Connector) CompleteJSON(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	req := &entity.CompletionRequest{
		Model:          c.config.Model,
		Messages:       messages,
		Temperature:    c.config.Temperature,
		ResponseFormat: &entity.ResponseFormat{Type: "json_object"},
	}

	return c.do(ctx, req)
}

func (c *Connector) do(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	var resp entity.CompletionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("malformed completion response: no choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("malformed completion response: empty message content")
	}

	return text, nil
}
