package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const historyMigrationsPath = "migrations/history"

//go:embed migrations/history/*.sql
var migrationsFS embed.FS

// MigrateHistoryDB applies the match-history schema migrations.
func MigrateHistoryDB(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate %s: nil db", historyMigrationsPath)
	}

	sourceDriver, err := iofs.New(migrationsFS, historyMigrationsPath)
	if err != nil {
		return fmt.Errorf("migrate %s: init source: %w", historyMigrationsPath, err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("migrate %s: init db driver: %w", historyMigrationsPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("migrate %s: init migrator: %w", historyMigrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: up: %w", historyMigrationsPath, err)
	}
	return nil
}
