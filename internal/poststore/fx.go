package poststore

import (
	"context"

	"go.uber.org/fx"
)

func register(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Load(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return s.Flush(ctx)
		},
	})
}

var Module = fx.Module("poststore",
	fx.Provide(New),
	fx.Invoke(register),
)
