package api

import (
	"context"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/gateway"
	"github.com/orgball2608/viralink-scheduler/internal/ratelimit"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

// PostService is the part of the post store exposed to clients.
type PostService interface {
	Create(ctx context.Context, in domain.PostInput) (domain.Post, error)
	Get(ctx context.Context, id string) (domain.Post, error)
	Update(ctx context.Context, id string, patch domain.PostPatch) (domain.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) []domain.Post
	QueueEntries() []domain.QueueEntry
}

type Opts struct {
	fx.In

	Posts   PostService
	Gateway gateway.Client
	Limiter ratelimit.Limiter
	Logger  logger.Logger
}

type Handler struct {
	Posts   PostService
	Gateway gateway.Client
	Limiter ratelimit.Limiter
	Logger  logger.Logger
}

func NewHandler(opts Opts) *Handler {
	return &Handler{
		Posts:   opts.Posts,
		Gateway: opts.Gateway,
		Limiter: opts.Limiter,
		Logger:  opts.Logger.WithComponent("API"),
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
