package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrationsFS embed.FS

// Store persists applied plans.
type Store interface {
	RecordPlan(ctx context.Context, rec PlanRecord) (int64, error)
	RecentPlans(ctx context.Context, limit int) ([]PlanRecord, error)
	Close() error
}

// Open connects to the history database. For sqlite the dsn is a file path;
// for postgres it is a connection URL.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// RunMigrations applies all pending embedded migrations for the driver.
func RunMigrations(driver, dsn string) error {
	var dbURL string
	switch driver {
	case DriverSQLite:
		dbURL = "sqlite://" + dsn
	case DriverPostgres:
		dbURL = dsn
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// defaultLimit applies when a caller passes a non-positive limit.
const defaultLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
