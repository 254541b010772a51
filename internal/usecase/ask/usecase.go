package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/entity"
)

// Config carries the retrieval and prompt parameters of the pipeline.
type Config struct {
	SystemPrompt    string
	MatchCount      int
	MatchThreshold  float64
	MaxContextChars int
}

// Usecase runs the answer pipeline: embed the query, search for similar
// documentation chunks, assemble the context block, generate the answer.
// The stages run in strict sequence per request and share no state across
// requests.
type Usecase struct {
	chunks    ChunkRepository
	embedder  EmbeddingConnector
	completer CompletionConnector
	cfg       Config
	logger    *zap.Logger
}

func NewUsecase(
	chunks ChunkRepository,
	embedder EmbeddingConnector,
	completer CompletionConnector,
	cfg Config,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		chunks:    chunks,
		embedder:  embedder,
		completer: completer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask answers a documentation question. Zero retrieved matches is a valid
// outcome: the generator is then instructed to answer from general
// knowledge or say that no documentation was found. Any provider or backend
// failure aborts the whole request; an answer is never generated from a
// partially failed retrieval.
func (u *Usecase) Ask(ctx context.Context, req *entity.AskRequest) (*entity.Answer, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, entity.ErrEmptyQuery
	}

	queryEmbedding, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingProvider, err)
	}

	matches, err := u.chunks.Search(ctx, queryEmbedding, u.cfg.MatchCount, u.cfg.MatchThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSearchBackend, err)
	}

	ctxzap.Info(ctx, "documentation retrieved", zap.Int("match_count", len(matches)))

	assembled := assembleContext(matches, u.cfg.MaxContextChars)
	if dropped := len(matches) - len(assembled.Used); dropped > 0 {
		ctxzap.Warn(ctx, "context budget exceeded, dropped lowest-ranked matches",
			zap.Int("dropped", dropped))
	}

	text, err := u.completer.Complete(ctx, u.buildMessages(query, req.Context, assembled.Block))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGenerationProvider, err)
	}

	sources := make([]entity.SourceRef, 0, len(assembled.Used))
	for _, m := range assembled.Used {
		sources = append(sources, entity.SourceRef{Title: m.Title, URL: m.URL})
	}

	return &entity.Answer{
		Text:    text,
		Sources: sources,
	}, nil
}

// buildMessages composes the prompt: fixed system instruction, assembled
// documentation context, optional caller-supplied context and the literal
// user query.
func (u *Usecase) buildMessages(query, callerContext, contextBlock string) []entity.ChatMessage {
	var b strings.Builder

	if contextBlock != "" {
		b.WriteString("Context from Tiled documentation:\n\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	} else {
		b.WriteString("No relevant documentation was found for this question. ")
		b.WriteString("Answer from general knowledge, or say that the documentation does not cover it.\n\n")
	}

	if callerContext = strings.TrimSpace(callerContext); callerContext != "" {
		b.WriteString("Additional context from the user:\n\n")
		b.WriteString(callerContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)

	return []entity.ChatMessage{
		{Role: "system", Content: u.cfg.SystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// ListPages returns the sorted unique URLs of all ingested documentation
// pages.
func (u *Usecase) ListPages(ctx context.Context) ([]string, error) {
	urls, err := u.chunks.ListURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSearchBackend, err)
	}
	return urls, nil
}

// GetPageContent returns the full content of one documentation page.
func (u *Usecase) GetPageContent(ctx context.Context, url string) (string, error) {
	content, err := u.chunks.PageContent(ctx, url)
	if err != nil {
		if errors.Is(err, entity.ErrPageNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", entity.ErrSearchBackend, err)
	}
	return content, nil
}
