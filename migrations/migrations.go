// Package migrations embeds the SQL schema so the server binary, the
// migration script and the integration tests apply the same files.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed *.sql
var FS embed.FS

// Up applies every pending migration on db and returns the schema version
// before and after.
func Up(db *sql.DB) (before, after uint, err error) {
	source, err := iofs.New(FS, ".")
	if err != nil {
		return 0, 0, fmt.Errorf("iofs.New: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, 0, fmt.Errorf("postgres.WithInstance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, 0, fmt.Errorf("migrate.NewWithInstance: %w", err)
	}

	before, _, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		before = 0
	} else if err != nil {
		return 0, 0, fmt.Errorf("m.Version.before: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, 0, fmt.Errorf("m.Up: %w", err)
	}

	after, _, err = m.Version()
	if err != nil {
		return before, 0, fmt.Errorf("m.Version.after: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"preMigrationVersion":  before,
		"postMigrationVersion": after,
	}).Info("Migration status")
	return before, after, nil
}
