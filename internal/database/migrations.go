package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"blog-server/pkg/migration"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS exposes the embedded schema for tools and tests.
func MigrationsFS() fs.FS {
	return migrationsFS
}

// ApplyMigrations brings the schema up to date.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	m := migration.NewMigrator(migration.Config{
		MigrationsFS:   migrationsFS,
		MigrationsPath: "migrations",
	}, pool, logger)
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("не удалось применить миграции: %w", err)
	}
	return nil
}
