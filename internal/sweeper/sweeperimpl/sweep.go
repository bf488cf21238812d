package sweeperimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/sweeper"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePublished
	outcomeFailed
)

// Sweep publishes every post due at the current time, one at a time.
// A failing post never stops the rest of the tick.
func (s *SweeperImpl) Sweep(ctx context.Context) sweeper.Report {
	if err := s.Store.Flush(ctx); err != nil {
		s.Logger.Warn("Failed to flush unsaved posts", "error", err)
	}

	now := s.Clock.Now()
	due := s.Store.TakeDue(now)
	report := sweeper.Report{Due: len(due)}
	if len(due) == 0 {
		return report
	}

	// In-flight publishes finish even when shutdown cancels ctx.
	workCtx := context.WithoutCancel(ctx)

	for _, entry := range due {
		switch s.attempt(workCtx, entry) {
		case outcomePublished:
			report.Published++
		case outcomeFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	s.Logger.Info("Publication tick finished",
		"due", report.Due,
		"published", report.Published,
		"failed", report.Failed,
		"skipped", report.Skipped)
	return report
}

func (s *SweeperImpl) attempt(ctx context.Context, entry domain.QueueEntry) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("Panic while publishing post", "postID", entry.PostID, "panic", r)
			s.fail(ctx, entry.PostID, fmt.Sprintf("panic: %v", r))
			out = outcomeFailed
		}
	}()

	p, err := s.Store.Get(ctx, entry.PostID)
	if err != nil {
		s.Logger.Debug("Due post no longer exists, skipping", "postID", entry.PostID)
		s.Store.Release(entry.PostID)
		return outcomeSkipped
	}
	if !p.Queued() || !p.PublishAt.Equal(entry.PublishAt) {
		s.Logger.Debug("Due entry is stale, skipping", "postID", p.ID, "status", p.Status)
		s.Store.Release(p.ID)
		return outcomeSkipped
	}

	pubCtx, cancel := s.publishContext(ctx)
	defer cancel()

	receipt, err := s.Publisher.Publish(pubCtx, domain.NewPublishRequest(p))
	if err != nil {
		s.fail(ctx, p.ID, err.Error())
		return outcomeFailed
	}

	// A failed save still leaves the post published in memory; the next
	// tick flushes it.
	if _, err := s.Store.MarkPublished(ctx, p.ID, s.Clock.Now()); err != nil {
		s.Logger.Error("Post published but its status could not be recorded", "postID", p.ID, "error", err)
		s.notify(publishedUnrecordedMessage(p, err))
		return outcomeFailed
	}

	s.Logger.Info("Post published", "postID", p.ID, "platforms", len(p.Platforms), "message", receipt.Message)
	return outcomePublished
}

func (s *SweeperImpl) fail(ctx context.Context, postID, reason string) {
	s.Logger.Error("Failed to publish scheduled post", "postID", postID, "reason", reason)

	p, err := s.Store.RecordPublishFailure(ctx, postID, reason, s.Clock.Now())
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.Logger.Error("Failed to record publish failure", "postID", postID, "error", err)
		}
		return
	}
	s.notify(failureMessage(p, reason))
}

func (s *SweeperImpl) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.Config.Scheduler.PublishTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (s *SweeperImpl) notify(message string) {
	if s.Telegram == nil {
		return
	}
	if err := s.Telegram.SendMessageToUser(message); err != nil {
		s.Logger.Warn("Failed to notify operator", "error", err)
	}
}

// SendFailureDigest reports every scheduled post still waiting for a retry
// after a failed publish.
func (s *SweeperImpl) SendFailureDigest(ctx context.Context) int {
	var failed []domain.Post
	for _, p := range s.Store.List(ctx) {
		if p.Status == domain.StatusScheduled && p.PublishFailure != nil {
			failed = append(failed, p)
		}
	}
	if len(failed) == 0 {
		return 0
	}

	s.notify(digestMessage(failed, s.Clock.Now().Add(-24*time.Hour)))
	s.Logger.Info("Failure digest sent", "posts", len(failed))
	return len(failed)
}
