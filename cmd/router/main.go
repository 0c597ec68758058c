// Package main is the entrypoint for the json-api-router (binary name "router").
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/json-api-router/internal/config"
	"github.com/morezero/json-api-router/internal/server"
	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/db"
)

const usage = `Usage: router [command]
       router serve              Start the router (NATS request/reply, HTTP /api, route events).
       router migrate up         Run database migrations.
       router migrate down       Migrations are forward-only; reports how to reset instead.
       router migrate status     Show migration status.
       router ensure-db [name]   Create database if missing (default name: router_test). Uses DATABASE_URL host/user.
       router clear              Truncate accounts, sessions, products and orders; schema is preserved.
       router seed [file]        Seed accounts, permission records, products and orders (default: seed/example.json).

Environment: DATABASE_URL (empty = in-memory stores seeded from ROUTER_SEED_FILE), MIGRATION_PATH,
ROUTER_SUBJECT, ROUTER_HTTP_ADDR (default :8080), ROUTER_TENANT_ID, ROUTER_PLUGIN_PREFIX.
`

const defaultSeedFile = "seed/example.json"

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("router migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := withPool(runMigrateUp); err != nil {
				log.Fatalf("router migrate up: %v", err)
			}
		case "status":
			if err := withPool(runMigrateStatus); err != nil {
				log.Fatalf("router migrate status: %v", err)
			}
		case "down":
			if err := withPool(runMigrateDown); err != nil {
				log.Fatalf("router migrate down: %v", err)
			}
		default:
			log.Fatalf("router migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "clear":
		if err := withPool(runClear); err != nil {
			log.Fatalf("router clear: %v", err)
		}
		return
	case "seed":
		seedFile := defaultSeedFile
		if len(args) > 1 && args[1] != "" {
			seedFile = args[1]
		}
		err := withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
			return runSeed(ctx, cfg, pool, seedFile)
		})
		if err != nil {
			log.Fatalf("router seed: %v", err)
		}
		return
	case "ensure-db":
		dbName := "router_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("router ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("router: %v", err)
	}
}

type dbCommand func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error

// withPool loads config, opens the database and runs fn.
func withPool(fn dbCommand) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	server.SetupLogging(cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runMigrateUp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
	return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
}

func runMigrateDown(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
	return db.MigrationDown(ctx, pool, cfg.MigrationPath)
}

func runClear(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
	if err := db.ClearData(ctx, pool); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, path string) error {
	return db.Seed(ctx, pool, db.SeedParams{
		Path:          path,
		PermissionKey: auth.PermissionKey(cfg.PluginPrefix),
		Tenant:        cfg.TenantID,
		BcryptCost:    cfg.BcryptCost,
	})
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := withDatabase(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// withDatabase replaces the database name in a connection URL, keeping the query.
func withDatabase(databaseURL, dbName string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
