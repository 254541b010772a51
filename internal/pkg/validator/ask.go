package validator

import (
	"fmt"
	"strings"

	"github.com/tiledocs/agent-backend/internal/entity"
)

// Validator validates inbound API requests
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateAsk validates AskRequest. The query must be non-empty after
// trimming; the remaining fields are optional free text.
func (v *Validator) ValidateAsk(req *entity.AskRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return entity.ErrEmptyQuery
	}
	return nil
}

// ValidatePageURL validates the url query parameter of the page content
// endpoint.
func (v *Validator) ValidatePageURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: url", entity.ErrMissingField)
	}
	return nil
}
