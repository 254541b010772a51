package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/config"
	"github.com/tiledocs/agent-backend/internal/entity"
	pkghttp "github.com/tiledocs/agent-backend/pkg/http"
)

func newTestConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.CompletionConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            server.URL,
			RequestTimeout: 5 * time.Second,
		},
		Endpoint:    "/v1/chat/completions",
		Model:       "test-chat-model",
		Temperature: 0.7,
		MaxTokens:   500,
	}

	return NewConnector(cfg, zap.NewNop())
}

func completionOf(text string) entity.CompletionResponse {
	return entity.CompletionResponse{
		Choices: []entity.CompletionChoice{
			{Message: entity.ChatMessage{Role: "assistant", Content: text}},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	var gotReq entity.CompletionRequest
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(completionOf("Open the tileset editor."))
	})

	messages := []entity.ChatMessage{
		{Role: "system", Content: "You are a Tiled expert."},
		{Role: "user", Content: "How do I edit a tileset?"},
	}

	text, err := connector.Complete(context.Background(), messages)
	require.NoError(t, err)

	assert.Equal(t, "Open the tileset editor.", text)
	assert.Equal(t, "test-chat-model", gotReq.Model)
	assert.Equal(t, messages, gotReq.Messages)
	assert.Equal(t, 0.7, gotReq.Temperature)
	assert.Equal(t, 500, gotReq.MaxTokens)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestCompleteJSON_EnablesJSONOutputMode(t *testing.T) {
	var gotReq entity.CompletionRequest
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(completionOf(`{"title":"t","summary":"s"}`))
	})

	text, err := connector.CompleteJSON(context.Background(), []entity.ChatMessage{
		{Role: "user", Content: "annotate this chunk"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"title":"t","summary":"s"}`, text)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
}

func TestComplete_EmptyChoicesIsAnError(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.CompletionResponse{})
	})

	_, err := connector.Complete(context.Background(), []entity.ChatMessage{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestComplete_EmptyContentIsAnError(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionOf(""))
	})

	_, err := connector.Complete(context.Background(), []entity.ChatMessage{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty message content")
}

func TestComplete_ProviderErrorStatus(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited upstream", http.StatusTooManyRequests)
	})

	_, err := connector.Complete(context.Background(), []entity.ChatMessage{{Role: "user", Content: "q"}})
	require.Error(t, err)

	var httpErr *pkghttp.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}
