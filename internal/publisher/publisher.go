package publisher

import (
	"context"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=mocks/mock.go

// Client performs the external publish side effect for a post.
type Client interface {
	Publish(ctx context.Context, req domain.PublishRequest) (*domain.PublishReceipt, error)
}
