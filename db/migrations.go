// Package db holds the SQL schema and applies it with goose.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const (
	migrationsDir = "migrations"
	versionTable  = "schema_migrations"
)

func configure(dialect string) error {
	goose.SetBaseFS(Migrations)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose: set dialect %q: %w", dialect, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, conn *sql.DB, dialect string) error {
	if err := configure(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Down rolls back the latest migration.
func Down(ctx context.Context, conn *sql.DB, dialect string) error {
	if err := configure(dialect); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Collect lists the embedded migrations in version order.
func Collect() (goose.Migrations, error) {
	goose.SetBaseFS(Migrations)
	return goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
}
