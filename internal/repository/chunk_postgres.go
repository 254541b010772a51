package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/tiledocs/agent-backend/internal/entity"
)

// ChunkRepository defines the interface for documentation chunk persistence
// and similarity search.
type ChunkRepository interface {
	Search(ctx context.Context, queryEmbedding []float32, matchCount int, matchThreshold float64) ([]entity.RetrievedMatch, error)
	Upsert(ctx context.Context, chunk *entity.DocumentChunk) error
	ListURLs(ctx context.Context) ([]string, error)
	PageContent(ctx context.Context, url string) (string, error)
}

var _ ChunkRepository = &ChunkPostgres{}

// ChunkPostgres implements ChunkRepository on PostgreSQL with pgvector.
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

// searchQuery ranks by the bare distance operator so the planner can use
// the ivfflat index; ordering by a derived similarity expression (or adding
// a secondary sort key) would force an exact sequential scan. Distance
// ascending is similarity descending, and every row past the K nearest
// scores lower than all of them, so filtering the threshold outside the
// LIMIT still yields exactly the above-threshold top K.
const searchQuery = `
	SELECT id, url, chunk_number, title, summary, content, similarity
	FROM (
		SELECT id, url, chunk_number, title, summary, content,
		       1 - (embedding <=> $1) AS similarity
		FROM doc_chunks
		ORDER BY embedding <=> $1
		LIMIT $3
	) nearest
	WHERE similarity > $2
	ORDER BY similarity DESC`

// Search ranks stored chunks by cosine similarity against queryEmbedding,
// keeps only rows strictly above matchThreshold and returns at most
// matchCount of them in descending similarity order. An empty result is a
// valid outcome, not an error.
func (r *ChunkPostgres) Search(ctx context.Context, queryEmbedding []float32, matchCount int, matchThreshold float64) ([]entity.RetrievedMatch, error) {
	vec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, searchQuery, vec, matchThreshold, matchCount)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var matches []entity.RetrievedMatch
	for rows.Next() {
		var m entity.RetrievedMatch
		if err := rows.Scan(&m.ID, &m.URL, &m.ChunkNumber, &m.Title, &m.Summary, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}

	return matches, nil
}

// Upsert inserts a chunk, replacing any previous chunk with the same
// (url, chunk_number). Used only by the ingestion CLI.
func (r *ChunkPostgres) Upsert(ctx context.Context, chunk *entity.DocumentChunk) error {
	if chunk.ID == uuid.Nil {
		chunk.ID = uuid.New()
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshal chunk metadata: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO doc_chunks (id, url, chunk_number, title, summary, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url, chunk_number) DO UPDATE
		SET title = EXCLUDED.title,
		    summary = EXCLUDED.summary,
		    content = EXCLUDED.content,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding`,
		chunk.ID, chunk.URL, chunk.ChunkNumber, chunk.Title, chunk.Summary,
		chunk.Content, metadataJSON, pgvector.NewVector(chunk.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s#%d: %w", chunk.URL, chunk.ChunkNumber, err)
	}

	return nil
}

// ListURLs returns the sorted unique URLs of all ingested documentation
// pages.
func (r *ChunkPostgres) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT url FROM doc_chunks ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url row: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url rows: %w", err)
	}

	return urls, nil
}

// PageContent returns the full content of one documentation page with its
// chunks joined in chunk_number order.
func (r *ChunkPostgres) PageContent(ctx context.Context, url string) (string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT content FROM doc_chunks WHERE url = $1 ORDER BY chunk_number`, url)
	if err != nil {
		return "", fmt.Errorf("get page content: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan content row: %w", err)
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate content rows: %w", err)
	}

	if len(parts) == 0 {
		return "", entity.ErrPageNotFound
	}

	return strings.Join(parts, "\n\n"), nil
}
