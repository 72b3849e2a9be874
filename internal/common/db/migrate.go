package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenSQL exposes the pool's connection settings as a database/sql handle
// for tools that need one. The caller closes it.
func OpenSQL(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDB(*pool.Config().ConnConfig)
}

// RunMigrations applies every pending migration found at the root of fsys.
func RunMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		metrics.DBMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.DBMigrationsTotal.WithLabelValues("success").Inc()
	return nil
}
