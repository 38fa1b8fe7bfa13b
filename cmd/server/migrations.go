package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/irislabs/iris-api/internal/config"
	"github.com/irislabs/iris-api/migrations"
)

// migrationsTableName is the table goose uses to track applied migrations.
const migrationsTableName = "schema_migrations"

// runMigrations executes the requested goose migration command against the
// configured database. Migration SQL is embedded in the binary, so the
// deployed server can migrate without a source checkout; the create command
// is the exception and writes a new file to the migrations/ directory of the
// working tree.
func runMigrations(cfg *config.Config, logger *slog.Logger, command, name string) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(migrationsTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if command == "create" {
		if name == "" {
			return fmt.Errorf("migration name is required for the create command")
		}
		// goose.Create reads the template from disk, not the embedded FS.
		goose.SetBaseFS(nil)
		return goose.Create(nil, "migrations", name, "sql")
	}

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	logger.Info("Executing migrations", "command", command)
	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	case "version":
		return versionMigrations(db, logger)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

func versionMigrations(db *sql.DB, logger *slog.Logger) error {
	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Current migration version", "version", version)
	return nil
}
