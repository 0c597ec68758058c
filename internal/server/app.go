package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/json-api-router/internal/config"
	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/catalog"
	"github.com/morezero/json-api-router/pkg/db"
	"github.com/morezero/json-api-router/pkg/dispatcher"
	"github.com/morezero/json-api-router/pkg/events"
	v1 "github.com/morezero/json-api-router/pkg/handlers/v1"
	"github.com/morezero/json-api-router/pkg/provider"
	"github.com/morezero/json-api-router/pkg/store"
)

const appLogPrefix = "server:app"

// identityStore is the store surface the server needs: authentication for the
// router plus a health probe.
type identityStore interface {
	auth.IdentityStore
	Ping(ctx context.Context) error
}

// App is the assembled router with its backing stores.
type App struct {
	Router *dispatcher.Router
	Store  identityStore
	// Validator is the credential validator installed in Router.
	Validator *auth.Validator
}

// NewAppParams holds parameters for NewApp.
type NewAppParams struct {
	Config *config.Config
	// Pool backs the stores; nil selects the in-memory stores.
	Pool *pgxpool.Pool
	// Publisher receives route events; nil publishes nothing.
	Publisher events.EventPublisher
}

// NewApp wires stores, handler-sets and validators into a Router.
func NewApp(ctx context.Context, params NewAppParams) (*App, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, fmt.Errorf("%s - config is required", appLogPrefix)
	}
	format, err := cfg.Format()
	if err != nil {
		return nil, fmt.Errorf("%s - %w", appLogPrefix, err)
	}

	var (
		st  identityStore
		cat catalog.Catalog
	)
	if params.Pool != nil {
		repo := db.NewRepository(params.Pool)
		pg := store.NewPostgres(repo)
		if err := pg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%s - identity store: %w", appLogPrefix, err)
		}
		st = pg
		cat = catalog.NewPostgres(repo)
		slog.Info(fmt.Sprintf("%s - using postgres stores", appLogPrefix))
	} else {
		mem := store.NewMemory(cfg.BcryptCost)
		memCat := catalog.NewMemory()
		if cfg.SeedFile != "" {
			if err := seedMemory(cfg.SeedFile, auth.PermissionKey(cfg.PluginPrefix), cfg.TenantID, mem, memCat); err != nil {
				return nil, err
			}
		}
		st, cat = mem, memCat
		slog.Info(fmt.Sprintf("%s - using in-memory stores", appLogPrefix))
	}

	validator := auth.NewValidator(auth.NewValidatorParams{
		Store:        st,
		Tenant:       cfg.TenantID,
		PluginPrefix: cfg.PluginPrefix,
	})

	set, err := v1.NewHandlerSet(cat)
	if err != nil {
		return nil, fmt.Errorf("%s - %w", appLogPrefix, err)
	}
	reg := provider.NewRegistry()
	if err := reg.Register(set); err != nil {
		return nil, fmt.Errorf("%s - %w", appLogPrefix, err)
	}

	router, err := dispatcher.NewRouter(dispatcher.NewRouterParams{
		Registry:    reg,
		Credentials: validator,
		Store:       st,
		Publisher:   params.Publisher,
		Format:      format,
	})
	if err != nil {
		return nil, fmt.Errorf("%s - %w", appLogPrefix, err)
	}
	return &App{Router: router, Store: st, Validator: validator}, nil
}

// seedMemory loads a seed file into the in-memory stores. Accounts get
// sequential ids in file order.
func seedMemory(path, permissionKey, tenant string, st *store.Memory, cat *catalog.Memory) error {
	f, err := db.LoadSeedFile(path)
	if err != nil {
		return err
	}

	ids := make(map[string]string, len(f.Accounts))
	for i, a := range f.Accounts {
		id := strconv.Itoa(i + 1)
		ids[a.Username] = id

		var rec auth.PermissionRecord
		if a.Permissions != nil {
			doc, err := json.Marshal(a.Permissions)
			if err != nil {
				return fmt.Errorf("%s - encode permissions for %s: %w", appLogPrefix, a.Username, err)
			}
			if rec, err = store.NormalizeRecord(doc); err != nil {
				return fmt.Errorf("%s - permissions for %s: %w", appLogPrefix, a.Username, err)
			}
		}
		accTenant := a.Tenant
		if accTenant == "" {
			accTenant = tenant
		}
		if err := st.AddAccount(permissionKey, store.MemoryAccount{
			Account:     auth.Account{ID: id, Username: a.Username, Email: a.Email},
			Password:    a.Password,
			Tenant:      accTenant,
			Permissions: rec,
		}); err != nil {
			return err
		}
	}

	for _, p := range f.Products {
		status := p.Status
		if status == "" {
			status = "publish"
		}
		cat.PutProduct(catalog.Product{
			ID:            p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			Status:        status,
		})
	}

	now := time.Now().UTC()
	for i, o := range f.Orders {
		order := catalog.Order{
			ID:       o.ID,
			Status:   o.Status,
			Currency: o.Currency,
			Total:    o.Total,
			// Later orders in the file are newer.
			Created: now.Add(time.Duration(i) * time.Second),
		}
		if order.Status == "" {
			order.Status = "pending"
		}
		if order.Currency == "" {
			order.Currency = "USD"
		}
		if o.Account != "" {
			id, ok := ids[o.Account]
			if !ok {
				return fmt.Errorf("%s - order %d references unknown account %q", appLogPrefix, o.ID, o.Account)
			}
			order.AccountID = id
		}
		for _, it := range o.Items {
			order.Items = append(order.Items, catalog.OrderItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				Total:     it.Total,
			})
		}
		cat.PutOrder(order)
	}

	slog.Info(fmt.Sprintf("%s - seeded memory from %s: %d accounts, %d products, %d orders",
		appLogPrefix, path, len(f.Accounts), len(f.Products), len(f.Orders)))
	return nil
}
