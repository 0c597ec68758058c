// Package catalog is the read-only source of products and orders served by the
// version-1 procedures.
package catalog

import (
	"context"
	"time"
)

// Default paging for ListOrders.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Product is a sellable item.
type Product struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Status        string `json:"status"`
}

// OrderItem is one order line.
type OrderItem struct {
	ProductID *int64 `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

// Order is a placed order. Items is empty in listings.
type Order struct {
	ID        int64       `json:"id"`
	AccountID string      `json:"account_id,omitempty"`
	Status    string      `json:"status"`
	Currency  string      `json:"currency"`
	Total     string      `json:"total"`
	Created   time.Time   `json:"created"`
	Items     []OrderItem `json:"items,omitempty"`
}

// OrderPage is one page of ListOrders.
type OrderPage struct {
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int     `json:"total"`
}

// Catalog reads products and orders. Lookups of unknown ids return nil
// without an error.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, page, perPage int) (*OrderPage, error)
}

// ClampPage normalizes paging arguments.
func ClampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
