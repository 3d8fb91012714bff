package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/document-analyzer/internal/common"
)

// DBResult bundles an opened database with its cleanup.
type DBResult struct {
	Driver  *entsql.Driver
	Pool    *pgxpool.Pool
	Cleanup func()
}

// InitDatabase opens the configured database and applies the schema. inmem
// forces an in-memory SQLite database; SQLITE_PATH selects a file-backed one;
// otherwise Postgres at DB_URL is used.
func InitDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*DBResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		drv  *entsql.Driver
		pool *pgxpool.Pool
		err  error
	)
	switch {
	case inmem || cfg.Database.InMemory:
		drv, err = OpenSQLite(ctx, "", logger)
	case cfg.Database.SQLitePath != "":
		drv, err = OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
	default:
		drv, pool, err = Open(ctx, Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "open database", err)
	}

	if err := Migrate(ctx, drv, logger); err != nil {
		Close(drv, pool, logger)
		return nil, common.NewAppError(common.CodeDatabase, "apply schema", err)
	}

	return &DBResult{
		Driver:  drv,
		Pool:    pool,
		Cleanup: func() { Close(drv, pool, logger) },
	}, nil
}
