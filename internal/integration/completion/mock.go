package completion

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/entity"
)

// MockConnector returns canned completions for local development and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion", zap.Int("message_count", len(messages)))

	return `To create a new tileset in Tiled, open File > New > New Tileset, pick the source image, ` +
		`set the tile width and height to match your art, and save the tileset next to your map. ` +
		`(Mock response - no completion provider was called.)`, nil
}

func (m *MockConnector) CompleteJSON(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating JSON completion", zap.Int("message_count", len(messages)))

	return `{"title": "Mock chunk title", "summary": "Mock chunk summary."}`, nil
}
