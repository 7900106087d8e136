package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

// Migrate applies every pending up migration found in dir of source against a
// postgres database. It opens its own connection through lib/pq.
func Migrate(dsn string, source fs.FS, dir string) error {
	if IsSQLite(dsn) {
		return errors.New("sql migrations target postgres; sqlite schemas are created with AutoMigrate")
	}

	sqlDB, err := sql.Open("postgres", PostgresURL(dsn))
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	sourceDriver, err := iofs.New(source, dir)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	databaseDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", databaseDriver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
