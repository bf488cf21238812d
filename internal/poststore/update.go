package poststore

import (
	"context"
	"slices"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/validation"
)

// Update merges patch into the post and applies the lifecycle rules:
//
//	draft     -> draft | scheduled | published
//	scheduled -> draft | scheduled
//	published -> published (content and media only)
//
// scheduled -> published only happens through the sweeper.
func (s *Store) Update(ctx context.Context, id string, patch domain.PostPatch) (domain.Post, error) {
	if patch.Stats != nil {
		return domain.Post{}, apperrors.Validation("stats are populated by the system")
	}
	if patch.Platforms != nil {
		normalized := domain.NormalizePlatforms(*patch.Platforms)
		patch.Platforms = &normalized
	}
	if err := s.validate.Struct(patch); err != nil {
		return domain.Post{}, apperrors.Validation("invalid post: %s", validation.Describe(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[id]
	if !ok {
		return domain.Post{}, apperrors.NotFound(id)
	}

	next := cur.Clone()
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.Media != nil {
		next.Media = nonNilMedia(*patch.Media)
	}
	if patch.Platforms != nil {
		next.Platforms = append([]domain.Platform{}, *patch.Platforms...)
	}
	if patch.PublishAt != nil {
		at := *patch.PublishAt
		next.PublishAt = &at
	}
	target := cur.Status
	if patch.Status != nil {
		target = *patch.Status
	}

	now := s.clock.Now()
	publish := false

	switch cur.Status {
	case domain.StatusDraft:
		switch target {
		case domain.StatusScheduled:
			if len(next.Platforms) == 0 {
				return domain.Post{}, apperrors.Validation("at least one platform is required to schedule")
			}
			if err := requireFuture(next.PublishAt, now); err != nil {
				return domain.Post{}, err
			}
		case domain.StatusPublished:
			if len(next.Platforms) == 0 {
				return domain.Post{}, apperrors.Validation("at least one platform is required to publish")
			}
			next.PublishAt = publishedAt(next.PublishAt, now)
			publish = true
		}

	case domain.StatusScheduled:
		switch target {
		case domain.StatusDraft:
			next.PublishFailure = nil
		case domain.StatusScheduled:
			if len(next.Platforms) == 0 {
				return domain.Post{}, apperrors.Validation("scheduled posts need at least one platform")
			}
			moved := patch.PublishAt != nil && !sameInstant(cur.PublishAt, patch.PublishAt)
			retried := patch.Status != nil && cur.PublishFailure != nil
			if moved || retried {
				if err := requireFuture(next.PublishAt, now); err != nil {
					return domain.Post{}, err
				}
				next.PublishFailure = nil
			}
		case domain.StatusPublished:
			return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), string(target))
		}

	case domain.StatusPublished:
		if target != domain.StatusPublished {
			return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), string(target))
		}
		if patch.PublishAt != nil && !sameInstant(cur.PublishAt, patch.PublishAt) {
			return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), "rescheduled")
		}
		if patch.Platforms != nil && !slices.Equal(cur.Platforms, next.Platforms) {
			return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), "re-targeted")
		}
	}

	next.Status = target
	next.UpdatedAt = now

	if publish {
		if err := s.publishNow(ctx, next); err != nil {
			return domain.Post{}, err
		}
	}

	if err := s.commit(ctx, &next, ""); err != nil {
		return domain.Post{}, err
	}

	s.logger.Info("Post updated", "postID", id, "from", cur.Status, "to", next.Status)
	return next.Clone(), nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
