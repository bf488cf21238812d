package sweeperimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/viralink-scheduler/internal/poststore"
	"github.com/orgball2608/viralink-scheduler/internal/publisher"
	"github.com/orgball2608/viralink-scheduler/internal/sweeper"
	"github.com/orgball2608/viralink-scheduler/internal/telegram"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Store     *poststore.Store
	Publisher publisher.Client
	Telegram  telegram.Client
	Clock     clockwork.Clock
	Logger    logger.Logger
	Config    *config.Config
}

type SweeperImpl struct {
	Store     *poststore.Store
	Publisher publisher.Client
	Telegram  telegram.Client
	Clock     clockwork.Clock
	Logger    logger.Logger
	Config    *config.Config
}

func New(opts Opts) *SweeperImpl {
	return &SweeperImpl{
		Store:     opts.Store,
		Publisher: opts.Publisher,
		Telegram:  opts.Telegram,
		Clock:     opts.Clock,
		Logger:    opts.Logger.WithComponent("Sweeper"),
		Config:    opts.Config,
	}
}

var _ sweeper.Client = (*SweeperImpl)(nil)

// Schedule registers the publication tick and the daily failure digest.
// Ticks are not singleton: a slow tick never delays the next one. TakeDue
// holds every taken post in flight, so an update made while a tick is
// publishing it cannot hand it to a second tick.
func (s *SweeperImpl) Schedule(ctx context.Context) error {
	loc, err := s.Config.Location()
	if err != nil {
		loc = time.UTC
		s.Logger.Warn("Failed to load scheduler timezone, using UTC", "timezone", s.Config.Scheduler.Timezone, "error", err)
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithClock(s.Clock),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.Config.Scheduler.TickInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, skipping publication tick")
				return
			}
			s.Sweep(ctx)
		}),
		gocron.WithName("publication-sweep"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule publication sweep: %w", err)
	}

	if hour := s.Config.Scheduler.DigestHour; hour >= 0 {
		_, err = scheduler.NewJob(
			gocron.DailyJob(
				1,
				gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0)),
			),
			gocron.NewTask(func() {
				if ctx.Err() != nil {
					return
				}
				s.SendFailureDigest(ctx)
			}),
			gocron.WithName("failure-digest"),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return fmt.Errorf("failed to schedule failure digest: %w", err)
		}
	}

	scheduler.Start()
	s.Logger.Info("Publication sweeper started",
		"tickInterval", s.Config.Scheduler.TickInterval.String(),
		"timezone", loc.String())

	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping publication sweeper")
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down sweeper scheduler", "error", err)
		}
	}()

	return nil
}
