package ask

import (
	"fmt"

	"github.com/tiledocs/agent-backend/internal/entity"
)

func toAskResponse(answer *entity.Answer) entity.AskResponse {
	// source_documents is always present in the response, empty when no
	// chunk cleared the similarity threshold.
	docs := make([]string, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		docs = append(docs, formatSource(s))
	}

	return entity.AskResponse{
		Response:        answer.Text,
		SourceDocuments: docs,
	}
}

func formatSource(s entity.SourceRef) string {
	if s.Title == "" {
		return s.URL
	}
	return fmt.Sprintf("%s (%s)", s.Title, s.URL)
}
