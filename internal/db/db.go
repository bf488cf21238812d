package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/orgball2608/viralink-scheduler/internal/migrations"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Migrate applies every registered Go migration to the configured database.
func Migrate(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach postgres for migrations: %w", err)
	}

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to get DB version: %w", err)
	}
	log.Info("Migrations applied", "version", version)
	return nil
}
