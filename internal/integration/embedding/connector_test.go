package embedding

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

func newTestConnector(t *testing.T, dimensions int, handler http.HandlerFunc) *Connector {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.EmbeddingConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            server.URL,
			RequestTimeout: 5 * time.Second,
		},
		Endpoint:   "/v1/embeddings",
		Model:      "test-embedding-model",
		Dimensions: dimensions,
	}

	return NewConnector(cfg, zap.NewNop())
}

func TestEmbed_Success(t *testing.T) {
	var gotReq entity.EmbeddingRequest
	connector := newTestConnector(t, 3, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(entity.EmbeddingResponse{
			Data: []entity.EmbeddingData{{Index: 0, Embedding: []float32{0.1, 0.2, 0.3}}},
		})
	})

	vector, err := connector.Embed(context.Background(), "how do I add a tile layer?")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "test-embedding-model", gotReq.Model)
	assert.Equal(t, "how do I add a tile layer?", gotReq.Input)
}

func TestEmbed_EmptyInputNeverCallsProvider(t *testing.T) {
	calls := 0
	connector := newTestConnector(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := connector.Embed(context.Background(), input)
		assert.Error(t, err, "input %q", input)
	}

	assert.Zero(t, calls)
}

func TestEmbed_EmptyDataIsAnError(t *testing.T) {
	connector := newTestConnector(t, 3, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.EmbeddingResponse{})
	})

	_, err := connector.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data entries")
}

func TestEmbed_WrongDimensionalityIsAnError(t *testing.T) {
	connector := newTestConnector(t, 1536, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.EmbeddingResponse{
			Data: []entity.EmbeddingData{{Embedding: []float32{0.1, 0.2}}},
		})
	})

	_, err := connector.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 dimensions, want 1536")
}

func TestEmbed_ProviderErrorStatus(t *testing.T) {
	connector := newTestConnector(t, 3, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := connector.Embed(context.Background(), "query")
	require.Error(t, err)

	var httpErr *pkghttp.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}
