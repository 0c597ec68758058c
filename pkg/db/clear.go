package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearData truncates the router's tables. The schema is preserved and
// identity sequences restart.
func ClearData(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing router tables", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE
		order_items,
		orders,
		products,
		api_sessions,
		account_meta,
		accounts
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Router tables cleared", clearLogPrefix))
	return nil
}
