package ask

import (
	"context"

	"github.com/tiledocs/agent-backend/internal/entity"
)

type AskUsecase interface {
	Ask(ctx context.Context, req *entity.AskRequest) (*entity.Answer, error)
	ListPages(ctx context.Context) ([]string, error)
	GetPageContent(ctx context.Context, url string) (string, error)
}
