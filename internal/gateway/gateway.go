package gateway

import (
	"context"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=mocks/mock.go

// Client forwards prompts to the external content generation providers.
// Calls are never retried and prompts are never persisted.
type Client interface {
	GenerateText(ctx context.Context, prompt domain.Prompt) (string, error)
	GenerateImage(ctx context.Context, prompt domain.Prompt) (domain.Media, error)
}
