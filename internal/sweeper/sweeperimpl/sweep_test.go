package sweeperimpl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/poststore"
	mock_publisher "github.com/orgball2608/viralink-scheduler/internal/publisher/mocks"
	"github.com/orgball2608/viralink-scheduler/internal/queue"
	"github.com/orgball2608/viralink-scheduler/internal/sweeper"
	mock_telegram "github.com/orgball2608/viralink-scheduler/internal/telegram/mocks"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"github.com/orgball2608/viralink-scheduler/pkg/validation"
	"go.uber.org/mock/gomock"
)

var start = time.Date(2025, 4, 15, 14, 0, 0, 0, time.UTC)

type memRepo struct {
	mu      sync.Mutex
	posts   []domain.Post
	saveErr error
}

func (r *memRepo) Load(context.Context) ([]domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Post(nil), r.posts...), nil
}

func (r *memRepo) Save(_ context.Context, posts []domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.posts = append([]domain.Post(nil), posts...)
	return nil
}

type fixture struct {
	sweeper *SweeperImpl
	store   *poststore.Store
	repo    *memRepo
	queue   *queue.Queue
	pub     *mock_publisher.MockClient
	tg      *mock_telegram.MockClient
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Scheduler.TickInterval = time.Minute
	cfg.Scheduler.PublishTimeout = 5 * time.Second
	cfg.Scheduler.DigestHour = -1

	f := &fixture{
		queue: queue.New(),
		repo:  &memRepo{},
		pub:   mock_publisher.NewMockClient(ctrl),
		tg:    mock_telegram.NewMockClient(ctrl),
		clock: clockwork.NewFakeClockAt(start),
	}
	f.store = poststore.New(poststore.Opts{
		Repo:      f.repo,
		Queue:     f.queue,
		Publisher: f.pub,
		Clock:     f.clock,
		Logger:    logger.NewNop(),
		Validate:  validation.New(),
	})
	f.sweeper = New(Opts{
		Store:     f.store,
		Publisher: f.pub,
		Telegram:  f.tg,
		Clock:     f.clock,
		Logger:    logger.NewNop(),
		Config:    cfg,
	})
	return f
}

func (f *fixture) schedule(t *testing.T, content string, d time.Duration) domain.Post {
	t.Helper()
	at := start.Add(d)
	p, err := f.store.Create(context.Background(), domain.PostInput{
		Content:   content,
		Platforms: []domain.Platform{domain.PlatformTwitter},
		Status:    domain.StatusScheduled,
		PublishAt: &at,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func captionIs(caption string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		req, ok := x.(domain.PublishRequest)
		return ok && req.Caption == caption
	})
}

func TestSweepPublishesDuePost(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "launch", 60*time.Second)
	if entries := f.store.QueueEntries(); len(entries) != 1 || entries[0].PostID != p.ID {
		t.Fatalf("queue after create = %+v", entries)
	}

	f.pub.EXPECT().Publish(gomock.Any(), domain.PublishRequest{
		Caption:   "launch",
		Media:     []domain.Media{},
		Platforms: []domain.Platform{domain.PlatformTwitter},
	}).Return(&domain.PublishReceipt{Message: "ok"}, nil)

	f.clock.Advance(61 * time.Second)
	report := f.sweeper.Sweep(context.Background())

	if report != (sweeper.Report{Due: 1, Published: 1}) {
		t.Fatalf("report = %+v", report)
	}
	got, err := f.store.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusPublished || f.queue.Contains(p.ID) {
		t.Fatalf("post = %+v, queued = %v", got, f.queue.Contains(p.ID))
	}
}

func TestSweepNotDueYet(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "later", 2*time.Minute)

	f.clock.Advance(119 * time.Second)
	if report := f.sweeper.Sweep(context.Background()); report.Due != 0 {
		t.Fatalf("report = %+v", report)
	}
	if !f.queue.Contains(p.ID) {
		t.Fatalf("entry dequeued early")
	}
}

func TestSweepFailureDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	x := f.schedule(t, "x", time.Minute)
	y := f.schedule(t, "y", time.Minute)

	f.pub.EXPECT().Publish(gomock.Any(), captionIs("x")).
		Return(nil, &apperrors.GatewayError{Provider: "publisher", Status: 503, Message: "down"})
	f.pub.EXPECT().Publish(gomock.Any(), captionIs("y")).
		Return(&domain.PublishReceipt{Message: "ok"}, nil)
	f.tg.EXPECT().SendMessageToUser(gomock.Cond(func(x any) bool {
		return strings.Contains(x.(string), "Publish failed")
	})).Return(nil)

	f.clock.Advance(time.Minute)
	report := f.sweeper.Sweep(context.Background())
	if report != (sweeper.Report{Due: 2, Published: 1, Failed: 1}) {
		t.Fatalf("report = %+v", report)
	}

	gotX, _ := f.store.Get(context.Background(), x.ID)
	if gotX.Status != domain.StatusScheduled || !gotX.PublishAt.Equal(*x.PublishAt) {
		t.Fatalf("failed post = %+v", gotX)
	}
	if gotX.PublishFailure == nil || !strings.Contains(gotX.PublishFailure.Reason, "down") {
		t.Fatalf("failure not recorded: %+v", gotX.PublishFailure)
	}
	if f.queue.Contains(x.ID) {
		t.Fatalf("failed post re-enqueued")
	}

	gotY, _ := f.store.Get(context.Background(), y.ID)
	if gotY.Status != domain.StatusPublished {
		t.Fatalf("second post status = %s", gotY.Status)
	}

	f.clock.Advance(time.Minute)
	if again := f.sweeper.Sweep(context.Background()); again.Due != 0 {
		t.Fatalf("failed post retried automatically: %+v", again)
	}
}

func TestSweepSkipsDeletedPost(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "gone", time.Minute)

	if err := f.store.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	f.clock.Advance(time.Minute)
	if report := f.sweeper.Sweep(context.Background()); report.Due != 0 {
		t.Fatalf("deleted post referenced by tick: %+v", report)
	}
}

func TestSweepSkipsStaleEntry(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "moved", time.Minute)

	// Entry dequeued by a tick while the client moves the post back to draft.
	f.clock.Advance(time.Minute)
	due := f.store.TakeDue(f.clock.Now())
	draft := domain.StatusDraft
	if _, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{Status: &draft}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if out := f.sweeper.attempt(context.Background(), due[0]); out != outcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", out)
	}
}

func TestSweepOverlappingTicksPublishOnce(t *testing.T) {
	f := newFixture(t)
	f.schedule(t, "slow", time.Minute)
	victim := f.schedule(t, "victim", 2*time.Minute)

	var second sweeper.Report
	f.pub.EXPECT().Publish(gomock.Any(), captionIs("slow")).DoAndReturn(
		func(ctx context.Context, _ domain.PublishRequest) (*domain.PublishReceipt, error) {
			// Both entries are taken; edit the waiting one and let the
			// next tick start before this publish returns.
			if _, err := f.store.Update(ctx, victim.ID, domain.PostPatch{Content: strPtr("victim v2")}); err != nil {
				t.Errorf("Update: %v", err)
			}
			if f.queue.Contains(victim.ID) {
				t.Errorf("held post put back in the queue")
			}
			second = f.sweeper.Sweep(ctx)
			return &domain.PublishReceipt{Message: "ok"}, nil
		})
	f.pub.EXPECT().Publish(gomock.Any(), captionIs("victim v2")).
		Return(&domain.PublishReceipt{Message: "ok"}, nil).Times(1)

	f.clock.Advance(2 * time.Minute)
	first := f.sweeper.Sweep(context.Background())

	if first != (sweeper.Report{Due: 2, Published: 2}) {
		t.Fatalf("first tick = %+v", first)
	}
	if second.Due != 0 {
		t.Fatalf("overlapping tick took %d entries", second.Due)
	}
	got, _ := f.store.Get(context.Background(), victim.ID)
	if got.Status != domain.StatusPublished || got.Content != "victim v2" {
		t.Fatalf("post = %+v", got)
	}
	if f.queue.Len() != 0 {
		t.Fatalf("queue = %+v", f.store.QueueEntries())
	}
}

func TestSweepRequeuesPostRescheduledWhileHeld(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "moved", time.Minute)

	f.clock.Advance(time.Minute)
	due := f.store.TakeDue(f.clock.Now())
	later := start.Add(time.Hour)
	if _, err := f.store.Update(context.Background(), p.ID, domain.PostPatch{PublishAt: &later}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if out := f.sweeper.attempt(context.Background(), due[0]); out != outcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", out)
	}
	entries := f.store.QueueEntries()
	if len(entries) != 1 || !entries[0].PublishAt.Equal(later) {
		t.Fatalf("queue = %+v", entries)
	}
}

func TestSweepUnrecordedPublishIsNotRepeated(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "once", time.Minute)

	f.pub.EXPECT().Publish(gomock.Any(), captionIs("once")).DoAndReturn(
		func(context.Context, domain.PublishRequest) (*domain.PublishReceipt, error) {
			f.repo.mu.Lock()
			f.repo.saveErr = errors.New("disk full")
			f.repo.mu.Unlock()
			return &domain.PublishReceipt{Message: "ok"}, nil
		}).Times(1)
	f.tg.EXPECT().SendMessageToUser(gomock.Cond(func(x any) bool {
		return strings.Contains(x.(string), "Published but not recorded")
	})).Return(nil)

	f.clock.Advance(time.Minute)
	if report := f.sweeper.Sweep(context.Background()); report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	got, _ := f.store.Get(context.Background(), p.ID)
	if got.Status != domain.StatusPublished || f.queue.Contains(p.ID) {
		t.Fatalf("post = %+v, queued = %v", got, f.queue.Contains(p.ID))
	}

	// The next tick saves what the failed write missed.
	f.repo.mu.Lock()
	f.repo.saveErr = nil
	f.repo.mu.Unlock()
	f.clock.Advance(time.Minute)
	f.sweeper.Sweep(context.Background())

	restarted := poststore.New(poststore.Opts{
		Repo:      f.repo,
		Queue:     queue.New(),
		Publisher: f.pub,
		Clock:     f.clock,
		Logger:    logger.NewNop(),
		Validate:  validation.New(),
	})
	if err := restarted.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if entries := restarted.QueueEntries(); len(entries) != 0 {
		t.Fatalf("published post queued again after restart: %+v", entries)
	}
	reloaded, _ := restarted.Get(context.Background(), p.ID)
	if reloaded.Status != domain.StatusPublished {
		t.Fatalf("reloaded status = %s", reloaded.Status)
	}
}

func strPtr(s string) *string { return &s }

func TestSweepRecoversPanic(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "boom", time.Minute)

	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.PublishRequest) (*domain.PublishReceipt, error) {
			panic("nil receipt")
		})
	f.tg.EXPECT().SendMessageToUser(gomock.Any()).Return(errors.New("telegram down"))

	f.clock.Advance(time.Minute)
	report := f.sweeper.Sweep(context.Background())
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	got, _ := f.store.Get(context.Background(), p.ID)
	if got.Status != domain.StatusScheduled || got.PublishFailure == nil {
		t.Fatalf("post = %+v", got)
	}
}

func TestSweepPublishContextSurvivesCancellation(t *testing.T) {
	f := newFixture(t)
	f.schedule(t, "late", time.Minute)

	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.PublishRequest) (*domain.PublishReceipt, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("publish context has no deadline")
			}
			return &domain.PublishReceipt{}, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.clock.Advance(time.Minute)
	if report := f.sweeper.Sweep(ctx); report.Published != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSendFailureDigest(t *testing.T) {
	f := newFixture(t)
	p := f.schedule(t, "x", time.Minute)
	f.schedule(t, "fine", time.Hour)

	f.store.TakeDue(start.Add(time.Minute))
	if _, err := f.store.RecordPublishFailure(context.Background(), p.ID, "quota exceeded", start.Add(time.Minute)); err != nil {
		t.Fatalf("RecordPublishFailure: %v", err)
	}

	f.tg.EXPECT().SendMessageToUser(gomock.Cond(func(x any) bool {
		msg := x.(string)
		return strings.Contains(msg, "*1 scheduled posts") && strings.Contains(msg, "quota exceeded")
	})).Return(nil)

	if n := f.sweeper.SendFailureDigest(context.Background()); n != 1 {
		t.Fatalf("digest listed %d posts, want 1", n)
	}
}

func TestScheduleRejectsZeroInterval(t *testing.T) {
	f := newFixture(t)
	f.sweeper.Config.Scheduler.TickInterval = 0

	if err := f.sweeper.Schedule(context.Background()); err == nil {
		t.Fatalf("expected error for zero tick interval")
	}
}

func TestScheduleStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.sweeper.Clock = clockwork.NewRealClock()
	f.sweeper.Config.Scheduler.TickInterval = time.Hour
	f.sweeper.Config.Scheduler.DigestHour = 3

	ctx, cancel := context.WithCancel(context.Background())
	if err := f.sweeper.Schedule(ctx); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	cancel()
}
