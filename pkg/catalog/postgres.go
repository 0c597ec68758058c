package catalog

import (
	"context"
	"fmt"

	"github.com/morezero/json-api-router/pkg/db"
)

const pgLogPrefix = "catalog:postgres"

// Postgres is a Catalog over the products, orders and order_items tables.
type Postgres struct {
	repo *db.Repository
}

// NewPostgres creates a Postgres catalog.
func NewPostgres(repo *db.Repository) *Postgres {
	return &Postgres{repo: repo}
}

// GetProduct implements Catalog.
func (p *Postgres) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row, err := p.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s - product %d: %w", pgLogPrefix, id, err)
	}
	if row == nil {
		return nil, nil
	}
	return &Product{
		ID:            row.ID,
		SKU:           row.SKU,
		Name:          row.Name,
		Price:         row.Price,
		StockQuantity: row.StockQuantity,
		Status:        row.Status,
	}, nil
}

// GetOrder implements Catalog.
func (p *Postgres) GetOrder(ctx context.Context, id int64) (*Order, error) {
	row, err := p.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s - order %d: %w", pgLogPrefix, id, err)
	}
	if row == nil {
		return nil, nil
	}
	o := orderFromRow(*row)
	for _, it := range row.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}
	return &o, nil
}

// ListOrders implements Catalog.
func (p *Postgres) ListOrders(ctx context.Context, page, perPage int) (*OrderPage, error) {
	page, perPage = ClampPage(page, perPage)
	rows, total, err := p.repo.ListOrders(ctx, db.ListOrdersParams{Page: page, Limit: perPage})
	if err != nil {
		return nil, fmt.Errorf("%s - list orders: %w", pgLogPrefix, err)
	}
	out := &OrderPage{Orders: make([]Order, 0, len(rows)), Page: page, PerPage: perPage, Total: total}
	for _, r := range rows {
		out.Orders = append(out.Orders, orderFromRow(r))
	}
	return out, nil
}

func orderFromRow(r db.Order) Order {
	o := Order{
		ID:       r.ID,
		Status:   r.Status,
		Currency: r.Currency,
		Total:    r.Total,
		Created:  r.Created,
	}
	if r.AccountID != nil {
		o.AccountID = *r.AccountID
	}
	return o
}
