package post

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
)

// FileRepository keeps the collection in a single JSON file.
type FileRepository struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

func NewFileRepository(path string, logger logger.Logger) *FileRepository {
	return &FileRepository{
		path:   path,
		logger: logger.WithComponent("PostFileRepo"),
	}
}

var _ Repository = (*FileRepository)(nil)

func (r *FileRepository) Load(ctx context.Context) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info("No collection file yet, starting empty", "path", r.path)
			return []domain.Post{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	return decode(payload)
}

// Save writes to a temp file in the same directory and renames it over the
// previous one, so readers never observe a half-written collection.
func (r *FileRepository) Save(ctx context.Context, posts []domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(posts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errors.Join(err, ErrCannotCreate)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return errors.Join(err, ErrCannotCreate)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Join(err, ErrCannotCreate)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(err, ErrCannotCreate)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return errors.Join(err, ErrCannotCreate)
	}
	return nil
}
