package catalog

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Catalog. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	products map[int64]Product
	orders   map[int64]Order
}

// NewMemory creates an empty Memory catalog.
func NewMemory() *Memory {
	return &Memory{
		products: make(map[int64]Product),
		orders:   make(map[int64]Order),
	}
}

// PutProduct inserts or replaces a product.
func (m *Memory) PutProduct(p Product) {
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
}

// PutOrder inserts or replaces an order.
func (m *Memory) PutOrder(o Order) {
	m.mu.Lock()
	m.orders[o.ID] = o
	m.mu.Unlock()
}

// GetProduct implements Catalog.
func (m *Memory) GetProduct(_ context.Context, id int64) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetOrder implements Catalog.
func (m *Memory) GetOrder(_ context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o.Items = append([]OrderItem(nil), o.Items...)
	return &o, nil
}

// ListOrders implements Catalog. Orders are listed newest first.
func (m *Memory) ListOrders(_ context.Context, page, perPage int) (*OrderPage, error) {
	page, perPage = ClampPage(page, perPage)

	m.mu.RLock()
	all := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		o.Items = nil
		all = append(all, o)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Created.Equal(all[j].Created) {
			return all[i].Created.After(all[j].Created)
		}
		return all[i].ID > all[j].ID
	})

	out := &OrderPage{Orders: []Order{}, Page: page, PerPage: perPage, Total: len(all)}
	start := (page - 1) * perPage
	if start >= len(all) {
		return out, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	out.Orders = all[start:end]
	return out, nil
}
