package post

import (
	"context"
	"fmt"

	"github.com/orgball2608/viralink-scheduler/internal/db"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	pgxpkg "github.com/orgball2608/viralink-scheduler/pkg/pgx"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	LC     fx.Lifecycle
	Logger logger.Logger
	Config *config.Config
}

// NewRepository picks the storage backend named by STORAGE_DRIVER.
func NewRepository(p Params) (Repository, error) {
	switch p.Config.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := pgxpkg.New(pgxpkg.Opts{LC: p.LC, Logger: p.Logger, Config: p.Config})
		if err != nil {
			return nil, err
		}
		p.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return db.Migrate(ctx, p.Config, p.Logger)
			},
		})
		return NewPgxRepository(pool, p.Logger, p.Config.Storage.Collection), nil
	case config.StorageDriverFile:
		return NewFileRepository(p.Config.Storage.Path, p.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", p.Config.Storage.Driver)
	}
}

var Module = fx.Module("post_repository",
	fx.Provide(NewRepository),
)
