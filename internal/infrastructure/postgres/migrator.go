package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// openMigrator binds the schema directory (instruments, ledger transactions,
// reports, snapshots, resolutions and the outbox) to the target database.
func openMigrator(databaseURL, migrationsPath string) (*migrate.Migrate, error) {
	source := migrationsPath
	if !strings.Contains(source, "://") {
		source = "file://" + source
	}
	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", source, err)
	}
	return m, nil
}

// RunMigrations brings the schema to the latest version. An up-to-date schema
// is not an error.
func RunMigrations(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	m, err := openMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info().Msg("schema already current")
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	logSchemaVersion(m, logger, "schema migrated")
	return nil
}

// RunMigrationsDown reverts exactly one migration step.
func RunMigrationsDown(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	m, err := openMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("revert migration: %w", err)
	}

	logSchemaVersion(m, logger, "schema reverted one step")
	return nil
}

func logSchemaVersion(m *migrate.Migrate, logger zerolog.Logger, msg string) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info().Msg(msg + " to empty schema")
		return
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg(msg)
}
