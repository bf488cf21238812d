package poststore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string { return &s }

func platformsPtr(p ...domain.Platform) *[]domain.Platform { return &p }

func TestUpdateUnknownIDLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	existing := f.scheduled(t, time.Hour)
	before := f.store.List(context.Background())
	saves := f.repo.saves

	_, err := f.store.Update(context.Background(), "missing", domain.PostPatch{Content: strPtr("x")})
	if !apperrors.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if !reflect.DeepEqual(before, f.store.List(context.Background())) || f.repo.saves != saves {
		t.Fatalf("store changed")
	}
	if !f.queue.Contains(existing.ID) {
		t.Fatalf("queue changed")
	}
}

func TestUpdateDraftToScheduled(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Platforms: []domain.Platform{domain.PlatformFacebook}})
	f.clock.Advance(time.Minute)

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{
		Status:    statusPtr(domain.StatusScheduled),
		PublishAt: at(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.StatusScheduled || !f.queue.Contains(p.ID) {
		t.Fatalf("post = %+v", got)
	}
	if !got.UpdatedAt.Equal(start.Add(time.Minute)) || !got.CreatedAt.Equal(start) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpdateDraftToScheduledRequiresFuturePublishAt(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Platforms: []domain.Platform{domain.PlatformFacebook}, PublishAt: at(-time.Hour)})

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusScheduled)})
	if !apperrors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	got, _ := f.store.Get(context.Background(), p.ID)
	if got.Status != domain.StatusDraft || f.queue.Len() != 0 {
		t.Fatalf("state changed: %+v", got)
	}
}

func TestUpdateDraftToScheduledRequiresPlatforms(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Platforms: []domain.Platform{domain.PlatformFacebook}})

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{
		Platforms: platformsPtr(),
		Status:    statusPtr(domain.StatusScheduled),
		PublishAt: at(time.Hour),
	})
	if !apperrors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestUpdateDraftToPublished(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Content: "go", Platforms: []domain.Platform{domain.PlatformTwitter}})
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(&domain.PublishReceipt{Message: "ok"}, nil)

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusPublished)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.StatusPublished {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestUpdateDraftToPublishedCapsFuturePublishAt(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{
		Content:   "go",
		Platforms: []domain.Platform{domain.PlatformTwitter},
		PublishAt: at(24 * time.Hour),
	})
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(&domain.PublishReceipt{Message: "ok"}, nil)

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusPublished)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PublishAt == nil || got.PublishAt.After(start) {
		t.Fatalf("publishAt = %v, want at most %v", got.PublishAt, start)
	}
	if f.queue.Len() != 0 {
		t.Fatalf("published post queued")
	}
}

func TestUpdateDraftToPublishedFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Platforms: []domain.Platform{domain.PlatformTwitter}})
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil, &apperrors.GatewayError{Provider: "publisher", Status: 500, Message: "down"})

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusPublished)})
	if !apperrors.IsGateway(err) {
		t.Fatalf("err = %v, want gateway error", err)
	}
	got, _ := f.store.Get(context.Background(), p.ID)
	if got.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want draft", got.Status)
	}
}

func TestUpdateScheduledToDraftRemovesEntry(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Hour)

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusDraft)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.StatusDraft || f.queue.Contains(p.ID) {
		t.Fatalf("post = %+v, queued = %v", got, f.queue.Contains(p.ID))
	}
}

func TestUpdateScheduledToPublishedIsInvalid(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Hour)

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusPublished)})
	if !apperrors.IsInvalidTransition(err) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	if !f.queue.Contains(p.ID) {
		t.Fatalf("queue entry lost")
	}
}

func TestUpdateRescheduleReplacesEntry(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Hour)

	if _, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{PublishAt: at(3 * time.Hour)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	entries := f.store.QueueEntries()
	if len(entries) != 1 || !entries[0].PublishAt.Equal(start.Add(3*time.Hour)) {
		t.Fatalf("queue = %+v", entries)
	}

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{PublishAt: at(-time.Minute)})
	if !apperrors.IsValidation(err) {
		t.Fatalf("past reschedule err = %v", err)
	}
}

func TestUpdateScheduledContentKeepsEntry(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Hour)

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Content: strPtr("edited")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Content != "edited" || !f.queue.Contains(p.ID) {
		t.Fatalf("post = %+v", got)
	}
}

func TestUpdateHeldPostStaysOutOfQueue(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Minute)
	f.clock.Advance(time.Minute)
	f.store.TakeDue(f.clock.Now())

	if _, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Content: strPtr("edited")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.queue.Contains(p.ID) {
		t.Fatalf("held post put back in the queue")
	}

	f.store.Release(p.ID)
	if !f.queue.Contains(p.ID) {
		t.Fatalf("released post not queued")
	}
}

func TestUpdateRescheduleClearsFailure(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Minute)
	f.queue.DequeueDue(start.Add(time.Minute))
	f.clock.Advance(time.Minute)
	if _, err := f.store.RecordPublishFailure(context.Background(), p.ID, "down", f.clock.Now()); err != nil {
		t.Fatalf("RecordPublishFailure: %v", err)
	}

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{PublishAt: at(time.Hour)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PublishFailure != nil || !f.queue.Contains(p.ID) {
		t.Fatalf("failed post not re-enqueued: %+v", got)
	}
}

func TestUpdateRetryFailedPostRequiresFuturePublishAt(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Minute)
	f.queue.DequeueDue(start.Add(time.Minute))
	f.clock.Advance(2 * time.Minute)
	if _, err := f.store.RecordPublishFailure(context.Background(), p.ID, "down", f.clock.Now()); err != nil {
		t.Fatalf("RecordPublishFailure: %v", err)
	}

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusScheduled)})
	if !apperrors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error for stale publishAt", err)
	}
	if f.queue.Contains(p.ID) {
		t.Fatalf("failed post enqueued with a past publishAt")
	}
}

func TestUpdatePublishedRules(t *testing.T) {
	f := newFixture(t)
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(&domain.PublishReceipt{}, nil)
	p := f.create(t, domain.PostInput{
		Platforms: []domain.Platform{domain.PlatformTwitter},
		Status:    domain.StatusPublished,
	})

	invalid := map[string]domain.PostPatch{
		"back to draft":     {Status: statusPtr(domain.StatusDraft)},
		"back to scheduled": {Status: statusPtr(domain.StatusScheduled), PublishAt: at(time.Hour)},
		"reschedule":        {PublishAt: at(time.Hour)},
		"retarget":          {Platforms: platformsPtr(domain.PlatformFacebook)},
	}
	for name, patch := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := f.store.Update(context.Background(), p.ID, patch); !apperrors.IsInvalidTransition(err) {
				t.Fatalf("err = %v, want invalid transition", err)
			}
		})
	}

	got, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{
		Content:   strPtr("typo fixed"),
		Platforms: platformsPtr("TWITTER"),
	})
	if err != nil {
		t.Fatalf("content edit: %v", err)
	}
	if got.Content != "typo fixed" || got.Status != domain.StatusPublished {
		t.Fatalf("post = %+v", got)
	}
}

func TestUpdateRejectsClientStats(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, domain.PostInput{Platforms: []domain.Platform{domain.PlatformTwitter}})

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Stats: &domain.Stats{Likes: 10}})
	if !apperrors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestUpdatePersistenceFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	p := f.scheduled(t, time.Hour)
	f.repo.saveErr = errors.New("disk full")

	_, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: statusPtr(domain.StatusDraft)})
	if !apperrors.IsPersistence(err) {
		t.Fatalf("err = %v, want persistence error", err)
	}
	got, _ := f.store.Get(context.Background(), p.ID)
	if got.Status != domain.StatusScheduled || !f.queue.Contains(p.ID) {
		t.Fatalf("state changed after failed save: %+v", got)
	}
}
