package poststore

import (
	"context"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
)

// publishNow performs the immediate publish attempt of a post moved
// straight to published. Callers must hold s.mu.
func (s *Store) publishNow(ctx context.Context, p domain.Post) error {
	receipt, err := s.publisher.Publish(ctx, domain.NewPublishRequest(p))
	if err != nil {
		s.logger.Error("Direct publish failed", "postID", p.ID, "error", err)
		if apperrors.IsGateway(err) {
			return err
		}
		return &apperrors.GatewayError{Provider: "publisher", Message: "publish failed", Err: err}
	}

	s.logger.Info("Post published directly", "postID", p.ID, "message", receipt.Message)
	return nil
}

// MarkPublished moves a scheduled post to published after the sweeper
// published it. When the save fails the post is still published in memory
// and out of the queue, and the error is returned.
func (s *Store) MarkPublished(ctx context.Context, id string, at time.Time) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, id)
	cur, ok := s.posts[id]
	if !ok {
		return domain.Post{}, apperrors.NotFound(id)
	}
	if cur.Status != domain.StatusScheduled {
		return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), string(domain.StatusPublished))
	}

	next := cur.Clone()
	next.Status = domain.StatusPublished
	next.PublishFailure = nil
	next.UpdatedAt = at

	if err := s.commit(ctx, &next, ""); err != nil {
		s.posts[id] = next
		s.queue.Remove(id)
		s.unsaved = true
		return next.Clone(), err
	}
	return next.Clone(), nil
}

// RecordPublishFailure keeps the post scheduled at its original publishAt
// and stores the failure. The post stays out of the queue until the client
// reschedules it.
func (s *Store) RecordPublishFailure(ctx context.Context, id, reason string, at time.Time) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, id)
	cur, ok := s.posts[id]
	if !ok {
		return domain.Post{}, apperrors.NotFound(id)
	}
	if cur.Status != domain.StatusScheduled {
		return domain.Post{}, apperrors.InvalidTransition(string(cur.Status), string(domain.StatusScheduled))
	}

	next := cur.Clone()
	next.PublishFailure = &domain.PublishFailure{Reason: reason, At: at}
	next.UpdatedAt = at

	if err := s.commit(ctx, &next, ""); err != nil {
		return domain.Post{}, err
	}
	return next.Clone(), nil
}
