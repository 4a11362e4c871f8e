package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"kestrel-eoc/core/utils"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

func applyGooseMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("postgres migrations applied")
	}
	return nil
}
