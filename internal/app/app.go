package app

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/viralink-scheduler/internal/api"
	"github.com/orgball2608/viralink-scheduler/internal/gateway"
	"github.com/orgball2608/viralink-scheduler/internal/gateway/gatewayimpl"
	"github.com/orgball2608/viralink-scheduler/internal/poststore"
	"github.com/orgball2608/viralink-scheduler/internal/publisher"
	"github.com/orgball2608/viralink-scheduler/internal/publisher/publisherimpl"
	"github.com/orgball2608/viralink-scheduler/internal/queue"
	"github.com/orgball2608/viralink-scheduler/internal/ratelimit"
	repositories "github.com/orgball2608/viralink-scheduler/internal/repositories/fx"
	"github.com/orgball2608/viralink-scheduler/internal/sweeper"
	"github.com/orgball2608/viralink-scheduler/internal/sweeper/sweeperimpl"
	"github.com/orgball2608/viralink-scheduler/internal/telegram"
	"github.com/orgball2608/viralink-scheduler/internal/telegram/telegramimpl"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/formatter"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"github.com/orgball2608/viralink-scheduler/pkg/validation"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		clockwork.NewRealClock,
		validation.New,
		newQueue,
	),
	fx.Provide(
		fx.Annotate(
			newLimiter,
			fx.As(new(ratelimit.Limiter)),
		),
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		),
		fx.Annotate(
			publisherimpl.New,
			fx.As(new(publisher.Client)),
		),
		fx.Annotate(
			gatewayimpl.New,
			fx.As(new(gateway.Client)),
		),
		fx.Annotate(
			sweeperimpl.New,
			fx.As(new(sweeper.Client)),
		),
		func(s *poststore.Store) api.PostService { return s },
	),
	repositories.Module,
	poststore.Module,
	api.Module,
	fx.Invoke(run),
)

func newQueue(cfg *config.Config) *queue.Queue {
	return queue.New(queue.WithGranularity(cfg.Scheduler.Granularity))
}

func newLimiter(cfg *config.Config, clock clockwork.Clock) *ratelimit.InMemoryLimiter {
	return ratelimit.NewInMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Per, cfg.RateLimit.Burst, clock)
}

func run(lc fx.Lifecycle, log logger.Logger, tgClient telegram.Client, sw sweeper.Client) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := sw.Schedule(ctx); err != nil {
				log.Error("Schedule publication sweeper error", "Error", err)
				_ = tgClient.SendMessageToUser("Schedule publication sweeper error: " + formatter.EscapeMarkdownV2(err.Error()))
				return err
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
