package poststore

import (
	"context"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/validation"
)

// Create validates in, assigns an id and timestamps and stores the post.
// A post created as published is sent to the publisher first and is not
// stored when that attempt fails.
func (s *Store) Create(ctx context.Context, in domain.PostInput) (domain.Post, error) {
	in.Platforms = domain.NormalizePlatforms(in.Platforms)
	if err := s.validate.Struct(in); err != nil {
		return domain.Post{}, apperrors.Validation("invalid post: %s", validation.Describe(err))
	}
	if in.Stats != nil {
		return domain.Post{}, apperrors.Validation("stats are populated by the system")
	}
	if len(in.Platforms) == 0 {
		return domain.Post{}, apperrors.Validation("at least one platform is required")
	}

	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}

	now := s.clock.Now()
	if status == domain.StatusScheduled {
		if err := requireFuture(in.PublishAt, now); err != nil {
			return domain.Post{}, err
		}
	}

	id, err := s.newID()
	if err != nil {
		return domain.Post{}, apperrors.Wrap(err, "generate post id")
	}

	p := domain.Post{
		ID:        id,
		Content:   in.Content,
		Media:     nonNilMedia(in.Media),
		Platforms: in.Platforms,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.PublishAt != nil {
		at := *in.PublishAt
		p.PublishAt = &at
	}

	if status == domain.StatusPublished {
		p.PublishAt = publishedAt(p.PublishAt, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status == domain.StatusPublished {
		if err := s.publishNow(ctx, p); err != nil {
			return domain.Post{}, err
		}
	}

	if err := s.commit(ctx, &p, ""); err != nil {
		return domain.Post{}, err
	}

	s.logger.Info("Post created", "postID", p.ID, "status", p.Status)
	return p.Clone(), nil
}

func requireFuture(at *time.Time, now time.Time) error {
	if at == nil {
		return apperrors.Validation("publishAt is required for scheduled posts")
	}
	if !at.After(now) {
		return apperrors.Validation("publishAt must be in the future")
	}
	return nil
}

// publishedAt caps the publishAt of a post published directly at now.
func publishedAt(at *time.Time, now time.Time) *time.Time {
	if at == nil || !at.After(now) {
		return at
	}
	return &now
}

func nonNilMedia(media []domain.Media) []domain.Media {
	if media == nil {
		return []domain.Media{}
	}
	return append([]domain.Media(nil), media...)
}
