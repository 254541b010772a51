package ask

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/entity"
)

type fakeEmbedder struct {
	calls  int
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeCompleter struct {
	calls    int
	messages []entity.ChatMessage
	answer   string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, messages []entity.ChatMessage) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeChunkRepo struct {
	searchCalls   int
	gotEmbedding  []float32
	gotCount      int
	gotThreshold  float64
	matches       []entity.RetrievedMatch
	searchErr     error
	urls          []string
	listErr       error
	pageContent   string
	pageErr       error
	requestedPage string
}

func (f *fakeChunkRepo) Search(_ context.Context, embedding []float32, count int, threshold float64) ([]entity.RetrievedMatch, error) {
	f.searchCalls++
	f.gotEmbedding = embedding
	f.gotCount = count
	f.gotThreshold = threshold
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeChunkRepo) ListURLs(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.urls, nil
}

func (f *fakeChunkRepo) PageContent(_ context.Context, url string) (string, error) {
	f.requestedPage = url
	if f.pageErr != nil {
		return "", f.pageErr
	}
	return f.pageContent, nil
}

func testConfig() Config {
	return Config{
		SystemPrompt:    "You are a Tiled expert.",
		MatchCount:      5,
		MatchThreshold:  0.78,
		MaxContextChars: 24000,
	}
}

func newTestUsecase(repo *fakeChunkRepo, embedder *fakeEmbedder, completer *fakeCompleter) *Usecase {
	return NewUsecase(repo, embedder, completer, testConfig(), zap.NewNop())
}

func TestAsk_HappyPath(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	repo := &fakeChunkRepo{matches: []entity.RetrievedMatch{
		{Title: "Working with Tilesets", URL: "https://doc.mapeditor.org/en/stable/manual/editing-tilesets/", Content: "Tilesets hold the tiles...", Similarity: 0.91},
		{Title: "Working with Layers", URL: "https://doc.mapeditor.org/en/stable/manual/layers/", Content: "Maps consist of layers...", Similarity: 0.82},
	}}
	completer := &fakeCompleter{answer: "Open the tileset editor and..."}
	uc := newTestUsecase(repo, embedder, completer)

	answer, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "How do I edit a tileset?"})
	require.NoError(t, err)

	assert.Equal(t, "Open the tileset editor and...", answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "Working with Tilesets", answer.Sources[0].Title)
	assert.Equal(t, "https://doc.mapeditor.org/en/stable/manual/layers/", answer.Sources[1].URL)

	// Each stage runs exactly once, and search gets the query embedding
	// with the configured parameters.
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, repo.searchCalls)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, repo.gotEmbedding)
	assert.Equal(t, 5, repo.gotCount)
	assert.Equal(t, 0.78, repo.gotThreshold)
}

func TestAsk_PromptContainsContextAndQuery(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{matches: []entity.RetrievedMatch{
		{Title: "Animation Editor", URL: "https://example.org/anim", Summary: "Frame timing.", Content: "Select a tile and open...", Similarity: 0.88},
	}}
	completer := &fakeCompleter{answer: "ok"}
	uc := newTestUsecase(repo, embedder, completer)

	_, err := uc.Ask(context.Background(), &entity.AskRequest{
		Query:   "How do I animate tiles?",
		Context: "Using Tiled 1.10",
	})
	require.NoError(t, err)

	require.Len(t, completer.messages, 2)
	assert.Equal(t, "system", completer.messages[0].Role)
	assert.Equal(t, "You are a Tiled expert.", completer.messages[0].Content)

	user := completer.messages[1].Content
	assert.Contains(t, user, "Context from Tiled documentation:")
	assert.Contains(t, user, "# Animation Editor")
	assert.Contains(t, user, "Select a tile and open...")
	assert.Contains(t, user, "Source: https://example.org/anim")
	assert.Contains(t, user, "Additional context from the user:\n\nUsing Tiled 1.10")
	assert.True(t, strings.HasSuffix(user, "Question: How do I animate tiles?"))
}

func TestAsk_NoMatchesStillAnswers(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{}
	completer := &fakeCompleter{answer: "I could not find that in the documentation."}
	uc := newTestUsecase(repo, embedder, completer)

	answer, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "something obscure"})
	require.NoError(t, err)

	assert.Empty(t, answer.Sources)
	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, completer.messages[1].Content, "No relevant documentation was found")
}

func TestAsk_EmptyQueryRejectedBeforeAnyProviderCall(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{}
	completer := &fakeCompleter{answer: "ok"}
	uc := newTestUsecase(repo, embedder, completer)

	for _, query := range []string{"", "   ", "\n\t"} {
		_, err := uc.Ask(context.Background(), &entity.AskRequest{Query: query})
		assert.ErrorIs(t, err, entity.ErrEmptyQuery)
	}

	assert.Zero(t, embedder.calls)
	assert.Zero(t, repo.searchCalls)
	assert.Zero(t, completer.calls)
}

func TestAsk_EmbeddingFailureAbortsPipeline(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("connection refused")}
	repo := &fakeChunkRepo{}
	completer := &fakeCompleter{answer: "ok"}
	uc := newTestUsecase(repo, embedder, completer)

	_, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "q"})
	assert.ErrorIs(t, err, entity.ErrEmbeddingProvider)

	assert.Zero(t, repo.searchCalls)
	assert.Zero(t, completer.calls)
}

func TestAsk_SearchFailureAbortsPipeline(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{searchErr: errors.New("db down")}
	completer := &fakeCompleter{answer: "ok"}
	uc := newTestUsecase(repo, embedder, completer)

	_, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "q"})
	assert.ErrorIs(t, err, entity.ErrSearchBackend)

	assert.Zero(t, completer.calls)
}

func TestAsk_GenerationFailure(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{}
	completer := &fakeCompleter{err: errors.New("model overloaded")}
	uc := newTestUsecase(repo, embedder, completer)

	_, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "q"})
	assert.ErrorIs(t, err, entity.ErrGenerationProvider)
}

func TestAsk_SourcesOnlyFromUsedMatches(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	repo := &fakeChunkRepo{matches: []entity.RetrievedMatch{
		{Title: "First", URL: "u1", Content: strings.Repeat("a", 900), Similarity: 0.9},
		{Title: "Second", URL: "u2", Content: strings.Repeat("b", 900), Similarity: 0.8},
	}}
	completer := &fakeCompleter{answer: "ok"}

	cfg := testConfig()
	cfg.MaxContextChars = 1000 // room for the first match only
	uc := NewUsecase(repo, embedder, completer, cfg, zap.NewNop())

	answer, err := uc.Ask(context.Background(), &entity.AskRequest{Query: "q"})
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "First", answer.Sources[0].Title)
	assert.NotContains(t, completer.messages[1].Content, "Second")
}

func TestListPages(t *testing.T) {
	repo := &fakeChunkRepo{urls: []string{"u1", "u2"}}
	uc := newTestUsecase(repo, &fakeEmbedder{}, &fakeCompleter{})

	urls, err := uc.ListPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, urls)
}

func TestListPages_BackendFailure(t *testing.T) {
	repo := &fakeChunkRepo{listErr: errors.New("db down")}
	uc := newTestUsecase(repo, &fakeEmbedder{}, &fakeCompleter{})

	_, err := uc.ListPages(context.Background())
	assert.ErrorIs(t, err, entity.ErrSearchBackend)
}

func TestGetPageContent(t *testing.T) {
	repo := &fakeChunkRepo{pageContent: "full page text"}
	uc := newTestUsecase(repo, &fakeEmbedder{}, &fakeCompleter{})

	content, err := uc.GetPageContent(context.Background(), "https://example.org/page")
	require.NoError(t, err)
	assert.Equal(t, "full page text", content)
	assert.Equal(t, "https://example.org/page", repo.requestedPage)
}

func TestGetPageContent_NotFoundPassesThrough(t *testing.T) {
	repo := &fakeChunkRepo{pageErr: entity.ErrPageNotFound}
	uc := newTestUsecase(repo, &fakeEmbedder{}, &fakeCompleter{})

	_, err := uc.GetPageContent(context.Background(), "https://example.org/missing")
	assert.ErrorIs(t, err, entity.ErrPageNotFound)
	assert.NotErrorIs(t, err, entity.ErrSearchBackend)
}
