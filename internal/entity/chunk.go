package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one stored unit of Tiled documentation. Chunks are
// written by the ingestion CLI and are read-only on the query path.
// (URL, ChunkNumber) is the uniqueness key.
type DocumentChunk struct {
	ID          uuid.UUID
	URL         string
	ChunkNumber int
	Title       string
	Summary     string
	Content     string
	Metadata    map[string]any
	Embedding   []float32
	CreatedAt   time.Time
}

// RetrievedMatch is a chunk with its cosine similarity against the query
// embedding, rescaled to [0, 1].
type RetrievedMatch struct {
	ID          uuid.UUID
	URL         string
	ChunkNumber int
	Title       string
	Summary     string
	Content     string
	Similarity  float64
}

// SourceRef attributes one retrieved chunk in an answer.
type SourceRef struct {
	Title string
	URL   string
}

// Answer is the generated response together with the ordered source
// attributions of the matches it was conditioned on. Never persisted.
type Answer struct {
	Text    string
	Sources []SourceRef
}
