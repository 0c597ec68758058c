// Package db provides the Postgres pool, migrations and seeding for the router's
// accounts, sessions and catalog tables.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// schemaMarkerTable is created by the first migration.
const schemaMarkerTable = "accounts"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

// RunMigrations applies migrations in order. Each migration file must be
// idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrations)))

	for _, m := range migrations {
		slog.Debug(fmt.Sprintf("%s - applying %s", logPrefix, m.Name))
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("%s - migration %s failed: %w", logPrefix, m.Name, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// MigrationStatus prints whether the schema is present.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	const statusLogPrefix = "db:MigrationStatus"

	exists, err := schemaPresent(ctx, pool)
	if err != nil {
		return fmt.Errorf("%s - %w", statusLogPrefix, err)
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	fmt.Print(formatMigrationStatus(exists, files, migrationPath))
	return nil
}

// MigrationDown does not execute anything; migrations are forward-only. It
// prints the migration files, newest first, that a manual rollback would
// have to undo.
func MigrationDown(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	const downLogPrefix = "db:MigrationDown"

	exists, err := schemaPresent(ctx, pool)
	if err != nil {
		return fmt.Errorf("%s - %w", downLogPrefix, err)
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", downLogPrefix, err)
	}

	fmt.Print(formatMigrationDown(exists, files))
	return nil
}

func schemaPresent(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		schemaMarkerTable).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema: %w", err)
	}
	return exists, nil
}

func formatMigrationDown(applied bool, files []Migration) string {
	if !applied {
		return "Migration down: nothing to roll back (schema not present).\n"
	}
	var b strings.Builder
	b.WriteString("Migration down: not supported (migrations are forward-only). Restore a backup or run 'router clear'.\n")
	if len(files) > 0 {
		b.WriteString("Manual rollback would have to undo, newest first:\n")
		for i := len(files) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "  %s\n", files[i].Name)
		}
	}
	return b.String()
}

func formatMigrationStatus(applied bool, files []Migration, migrationPath string) string {
	if applied {
		return fmt.Sprintf("Migration status: applied (schema present, %d migration files in %s)\n", len(files), migrationPath)
	}
	return fmt.Sprintf("Migration status: not applied (run 'router migrate up'). %d migration files in %s\n", len(files), migrationPath)
}
