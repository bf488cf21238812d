package post

import (
	"context"
	"errors"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

var (
	ErrBadQuery     = errors.New("bad query")
	ErrCorrupted    = errors.New("post collection is corrupted")
	ErrCannotCreate = errors.New("error save post collection")
)

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go

// Repository persists the whole post collection as a single document.
type Repository interface {
	// Load returns the stored collection, or an empty one if nothing was saved yet
	Load(ctx context.Context) ([]domain.Post, error)

	// Save replaces the stored collection
	Save(ctx context.Context, posts []domain.Post) error
}
