package entity

// Wire types for the OpenAI-compatible provider APIs. These stay at the
// integration boundary; internal logic works with DocumentChunk, Answer and
// plain vectors, never with raw provider shapes.

type EmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type EmbeddingResponse struct {
	Data []EmbeddingData `json:"data"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type CompletionChoice struct {
	Message ChatMessage `json:"message"`
}

type CompletionResponse struct {
	Choices []CompletionChoice `json:"choices"`
}

// ChunkAnnotation is the JSON object the completion model returns when asked
// to title and summarize a documentation chunk during ingestion.
type ChunkAnnotation struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}
