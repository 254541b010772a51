package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/entity"
	"github.com/tiledocs/agent-backend/internal/pkg/logger"
	"github.com/tiledocs/agent-backend/internal/pkg/response"
	"github.com/tiledocs/agent-backend/internal/pkg/validator"
)

type Handler struct {
	usecase   AskUsecase
	validator *validator.Validator
}

func NewHandler(usecase AskUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// Ask handles POST /api/ask - answer a documentation question
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req entity.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.ValidateAsk(&req); err != nil {
		ctxzap.Error(ctx, "failed to validate request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.usecase.Ask(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("response_length", len(answer.Text)),
		zap.Int("source_count", len(answer.Sources)),
	)

	response.Success(w, toAskResponse(answer))
}

// ListPages handles GET /api/pages - list ingested documentation pages
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListPages")

	urls, err := h.usecase.ListPages(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.PageListResponse{Pages: urls})
}

// PageContent handles GET /api/pages/content - full content of one page
func (h *Handler) PageContent(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "PageContent")

	url := r.URL.Query().Get("url")
	if err := h.validator.ValidatePageURL(url); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := h.usecase.GetPageContent(ctx, url)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.PageContentResponse{URL: url, Content: content})
}

// handleUsecaseError maps pipeline errors to HTTP statuses. Upstream
// failures all collapse into a generic 500: the specific kind is logged,
// never exposed.
func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyQuery):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrPageNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrEmbeddingProvider),
		errors.Is(err, entity.ErrSearchBackend),
		errors.Is(err, entity.ErrGenerationProvider):
		ctxzap.Error(ctx, "upstream dependency failure", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	default:
		ctxzap.Error(ctx, "unexpected error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
