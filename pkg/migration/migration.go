package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq" // драйвер "postgres" для database/sql
	"go.uber.org/zap"
)

const (
	migrationsTable = "schema_migrations"
	lockTimeout     = 30 * time.Second
)

// Config содержит настройки для миграций
type Config struct {
	MigrationsPath string
	MigrationsFS   fs.FS
}

// Migrator выполняет миграции базы данных.
// Работает либо поверх pgxpool, либо поверх DSN (для CLI без пула).
type Migrator struct {
	config Config
	pool   *pgxpool.Pool
	dsn    string
	logger *zap.Logger
}

// NewMigrator создает Migrator поверх существующего пула.
func NewMigrator(config Config, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		config: config,
		pool:   pool,
		logger: logger.Named("Migrator"),
	}
}

// NewDSNMigrator создает Migrator, открывающий собственное соединение через lib/pq.
func NewDSNMigrator(config Config, dsn string, logger *zap.Logger) *Migrator {
	return &Migrator{
		config: config,
		dsn:    dsn,
		logger: logger.Named("Migrator"),
	}
}

// Up применяет все доступные миграции
func (m *Migrator) Up(ctx context.Context) error {
	migrator, closeFn, err := m.createMigrator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeFn()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if version, dirty, verr := migrator.Version(); verr == nil {
			m.logger.Error("Migration failed", zap.Uint("version", version), zap.Bool("dirty", dirty), zap.Error(err))
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.logger.Info("Database migrations applied successfully")
	return nil
}

// Down откатывает все миграции
func (m *Migrator) Down(ctx context.Context) error {
	migrator, closeFn, err := m.createMigrator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeFn()

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	m.logger.Info("Database migrations rolled back successfully")
	return nil
}

// Version возвращает текущую версию миграции
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	migrator, closeFn, err := m.createMigrator(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeFn()

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

// createMigrator создает экземпляр migrate.Migrate и функцию его закрытия
func (m *Migrator) createMigrator(ctx context.Context) (*migrate.Migrate, func(), error) {
	db, err := m.openDB(ctx)
	if err != nil {
		return nil, nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:       migrationsTable,
		MigrationsTableQuoted: true,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	migrator.LockTimeout = lockTimeout

	closeFn := func() {
		srcErr, dbErr := migrator.Close()
		if srcErr != nil || dbErr != nil {
			m.logger.Warn("Failed to close migrator cleanly", zap.NamedError("sourceErr", srcErr), zap.NamedError("dbErr", dbErr))
		}
	}
	return migrator, closeFn, nil
}

func (m *Migrator) openDB(ctx context.Context) (*sql.DB, error) {
	if m.pool != nil {
		return stdlib.OpenDBFromPool(m.pool), nil
	}
	db, err := sql.Open("postgres", m.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
