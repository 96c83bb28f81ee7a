package app

import (
	"database/sql"
	"fmt"

	goose "github.com/pressly/goose/v3"

	"github.com/guttosm/spimexpulse/db"
	"github.com/guttosm/spimexpulse/internal/logger"
)

// Migrate applies the embedded goose migrations up to the latest version.
func Migrate(conn *sql.DB) error {
	goose.SetBaseFS(db.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(conn, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(conn)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	logger.L().Info().Int64("version", version).Msg("migrations applied")
	return nil
}
