package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const seedLogPrefix = "db:seed"

// SeedFile is the JSON document accepted by Seed.
type SeedFile struct {
	Accounts []SeedAccount `json:"accounts" validate:"dive"`
	Products []SeedProduct `json:"products" validate:"dive"`
	Orders   []SeedOrder   `json:"orders" validate:"dive"`
}

// SeedAccount is one account with its permission record.
type SeedAccount struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	// Tenant overrides SeedParams.Tenant.
	Tenant string `json:"tenant"`
	// Permissions is stored verbatim as the account's jsonb permission record.
	Permissions map[string]any `json:"permissions"`
}

// SeedProduct is one product row.
type SeedProduct struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	SKU           string `json:"sku"`
	Name          string `json:"name" validate:"required"`
	Price         string `json:"price" validate:"omitempty,numeric"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"`
	Status        string `json:"status"`
}

// SeedOrder is one order row. Account refers to a seeded username.
type SeedOrder struct {
	ID       int64           `json:"id" validate:"required,gt=0"`
	Account  string          `json:"account"`
	Status   string          `json:"status"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
	Total    string          `json:"total" validate:"omitempty,numeric"`
	Items    []SeedOrderItem `json:"items" validate:"dive"`
}

// SeedOrderItem is one order line.
type SeedOrderItem struct {
	ProductID *int64 `json:"product_id"`
	Name      string `json:"name" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Total     string `json:"total" validate:"omitempty,numeric"`
}

// SeedParams holds parameters for Seed.
type SeedParams struct {
	Path string
	// PermissionKey is the metadata key permission records are stored under.
	PermissionKey string
	// Tenant is the default tenant for account permission records.
	Tenant     string
	BcryptCost int
}

// LoadSeedFile reads and validates a seed document.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - read %s: %w", seedLogPrefix, path, err)
	}
	var f SeedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s - parse %s: %w", seedLogPrefix, path, err)
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("%s - invalid seed file %s: %w", seedLogPrefix, path, err)
	}
	return &f, nil
}

// Seed loads params.Path and upserts its accounts, permission records, products
// and orders in one transaction. Re-running a seed file is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, params SeedParams) error {
	slog.Info(fmt.Sprintf("%s - seeding from %s", seedLogPrefix, params.Path))

	f, err := LoadSeedFile(params.Path)
	if err != nil {
		return err
	}
	if params.PermissionKey == "" {
		return fmt.Errorf("%s - permission key is required", seedLogPrefix)
	}
	cost := params.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	repo := NewRepository(pool).WithTx(tx)
	accountIDs := make(map[string]string, len(f.Accounts))

	for _, a := range f.Accounts {
		var hash string
		if a.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
			if err != nil {
				return fmt.Errorf("%s - hash password for %s: %w", seedLogPrefix, a.Username, err)
			}
			hash = string(h)
		}
		acc, err := repo.UpsertAccount(ctx, UpsertAccountParams{
			Username:     a.Username,
			Email:        a.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("%s - account %s: %w", seedLogPrefix, a.Username, err)
		}
		accountIDs[a.Username] = acc.ID

		if a.Permissions == nil {
			continue
		}
		doc, err := json.Marshal(a.Permissions)
		if err != nil {
			return fmt.Errorf("%s - encode permissions for %s: %w", seedLogPrefix, a.Username, err)
		}
		tenant := a.Tenant
		if tenant == "" {
			tenant = params.Tenant
		}
		if err := repo.SetAccountMeta(ctx, SetAccountMetaParams{
			AccountID: acc.ID,
			TenantID:  tenant,
			Key:       params.PermissionKey,
			Value:     doc,
		}); err != nil {
			return fmt.Errorf("%s - permissions for %s: %w", seedLogPrefix, a.Username, err)
		}
	}

	for _, p := range f.Products {
		if err := repo.UpsertProduct(ctx, productRow(p)); err != nil {
			return err
		}
	}

	for _, o := range f.Orders {
		row, err := orderRow(o, accountIDs)
		if err != nil {
			return err
		}
		if err := repo.UpsertOrder(ctx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - seeded %d accounts, %d products, %d orders",
		seedLogPrefix, len(f.Accounts), len(f.Products), len(f.Orders)))
	return nil
}

func productRow(p SeedProduct) Product {
	status := p.Status
	if status == "" {
		status = "publish"
	}
	return Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Status:        status,
	}
}

func orderRow(o SeedOrder, accountIDs map[string]string) (Order, error) {
	row := Order{
		ID:       o.ID,
		Status:   o.Status,
		Currency: o.Currency,
		Total:    o.Total,
	}
	if row.Status == "" {
		row.Status = "pending"
	}
	if row.Currency == "" {
		row.Currency = "USD"
	}
	if o.Account != "" {
		id, ok := accountIDs[o.Account]
		if !ok {
			return Order{}, fmt.Errorf("%s - order %d references unknown account %q", seedLogPrefix, o.ID, o.Account)
		}
		row.AccountID = &id
	}
	for i, it := range o.Items {
		row.Items = append(row.Items, OrderItem{
			Line:      i + 1,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}
	return row, nil
}
