package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/entity"
)

type EmbeddingConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type AnnotationConnector interface {
	CompleteJSON(ctx context.Context, messages []entity.ChatMessage) (string, error)
}

type ChunkStore interface {
	Upsert(ctx context.Context, chunk *entity.DocumentChunk) error
}

const annotationPrompt = `You are an AI that extracts titles and summaries from documentation chunks.
Return a JSON object with 'title' and 'summary' keys.
For the title: If this seems like the start of a document, extract its title. If it's a middle chunk, derive a descriptive title.
For the summary: Create a concise summary of the main points in this chunk.
Keep both title and summary concise but informative.`

// Ingestor crawls a documentation site, splits each page into chunks,
// annotates and embeds every chunk and upserts it into the store. It runs
// offline; the query path never writes chunks. Provider calls here retry
// with backoff since a long crawl should survive transient provider
// failures.
type Ingestor struct {
	crawler     *Crawler
	store       ChunkStore
	embedder    EmbeddingConnector
	annotator   AnnotationConnector
	chunkSize   int
	concurrency int
	logger      *zap.Logger
}

func NewIngestor(
	crawler *Crawler,
	store ChunkStore,
	embedder EmbeddingConnector,
	annotator AnnotationConnector,
	chunkSize int,
	concurrency int,
	logger *zap.Logger,
) *Ingestor {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Ingestor{
		crawler:     crawler,
		store:       store,
		embedder:    embedder,
		annotator:   annotator,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run crawls baseURL and ingests every page. Page failures are logged and
// counted, not fatal; the first context cancellation stops the run.
func (i *Ingestor) Run(ctx context.Context, baseURL string) error {
	pages, err := i.crawler.Crawl(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("crawl documentation: %w", err)
	}

	i.logger.Info("crawl finished", zap.Int("page_count", len(pages)))

	pageCh := make(chan Page)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int

	for w := 0; w < i.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pageCh {
				if err := i.ingestPage(ctx, page); err != nil {
					i.logger.Error("failed to ingest page",
						zap.String("url", page.URL), zap.Error(err))
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}

	for _, page := range pages {
		select {
		case pageCh <- page:
		case <-ctx.Done():
			close(pageCh)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(pageCh)
	wg.Wait()

	if failed > 0 {
		i.logger.Warn("ingestion finished with failures",
			zap.Int("failed_pages", failed), zap.Int("total_pages", len(pages)))
	} else {
		i.logger.Info("ingestion finished", zap.Int("total_pages", len(pages)))
	}

	return nil
}

func (i *Ingestor) ingestPage(ctx context.Context, page Page) error {
	chunks := ChunkText(page.Text, i.chunkSize)

	for n, content := range chunks {
		chunk, err := i.processChunk(ctx, page.URL, n, content)
		if err != nil {
			return fmt.Errorf("process chunk %d: %w", n, err)
		}

		if err := i.store.Upsert(ctx, chunk); err != nil {
			return fmt.Errorf("store chunk %d: %w", n, err)
		}
	}

	i.logger.Info("page ingested",
		zap.String("url", page.URL), zap.Int("chunk_count", len(chunks)))

	return nil
}

func (i *Ingestor) processChunk(ctx context.Context, pageURL string, number int, content string) (*entity.DocumentChunk, error) {
	annotation, err := i.annotate(ctx, pageURL, content)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}

	vector, err := retry.DoWithData(func() ([]float32, error) {
		return i.embedder.Embed(ctx, content)
	}, retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	urlPath := ""
	if parsed, err := url.Parse(pageURL); err == nil {
		urlPath = parsed.Path
	}

	return &entity.DocumentChunk{
		URL:         pageURL,
		ChunkNumber: number,
		Title:       annotation.Title,
		Summary:     annotation.Summary,
		Content:     content,
		Metadata: map[string]any{
			"source":     "tiled_docs",
			"chunk_size": len(content),
			"crawled_at": time.Now().UTC().Format(time.RFC3339),
			"url_path":   urlPath,
		},
		Embedding: vector,
	}, nil
}

// annotate asks the completion provider for a title and summary. Only the
// first 1000 characters are sent, enough for context without paying for
// the whole chunk.
func (i *Ingestor) annotate(ctx context.Context, pageURL, content string) (*entity.ChunkAnnotation, error) {
	preview := content
	if len(preview) > 1000 {
		preview = preview[:1000] + "..."
	}

	messages := []entity.ChatMessage{
		{Role: "system", Content: annotationPrompt},
		{Role: "user", Content: fmt.Sprintf("URL: %s\n\nContent:\n%s", pageURL, preview)},
	}

	raw, err := retry.DoWithData(func() (string, error) {
		return i.annotator.CompleteJSON(ctx, messages)
	}, retryOptions(ctx)...)
	if err != nil {
		return nil, err
	}

	var annotation entity.ChunkAnnotation
	if err := json.Unmarshal([]byte(raw), &annotation); err != nil {
		return nil, fmt.Errorf("parse annotation JSON: %w", err)
	}

	return &annotation, nil
}

func retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500 * time.Millisecond),
		retry.MaxDelay(5 * time.Second),
		retry.DelayType(retry.BackOffDelay),
	}
}
