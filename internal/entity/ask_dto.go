package entity

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Context   string `json:"context,omitempty"`
}

// AskResponse is the body of POST /api/ask: the generated text plus one
// "<title> (<url>)" attribution per retrieved chunk, in rank order.
type AskResponse struct {
	Response        string   `json:"response"`
	SourceDocuments []string `json:"source_documents"`
}

// PageListResponse is the body of GET /api/pages.
type PageListResponse struct {
	Pages []string `json:"pages"`
}

// PageContentResponse is the body of GET /api/pages/content.
type PageContentResponse struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}
