package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/morezero/json-api-router/pkg/db"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, DefaultPerPage},
		{2, 10, 2, 10},
		{-1, 500, 1, MaxPerPage},
	}
	for _, tt := range tests {
		p, pp := ClampPage(tt.page, tt.perPage)
		if p != tt.wantPage || pp != tt.wantPerPage {
			t.Errorf("catalog:catalog_test - ClampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.perPage, p, pp, tt.wantPage, tt.wantPerPage)
		}
	}
}

func TestMemory_Lookups(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutProduct(Product{ID: 10, Name: "Mug", Price: "9.50"})
	m.PutOrder(Order{ID: 100, Items: []OrderItem{{Name: "Mug", Quantity: 2}}})

	p, err := m.GetProduct(ctx, 10)
	if err != nil || p == nil || p.Name != "Mug" {
		t.Fatalf("catalog:catalog_test - GetProduct = %+v, %v", p, err)
	}
	if none, err := m.GetProduct(ctx, 11); none != nil || err != nil {
		t.Errorf("catalog:catalog_test - unknown product = %+v, %v", none, err)
	}

	o, err := m.GetOrder(ctx, 100)
	if err != nil || o == nil || len(o.Items) != 1 {
		t.Fatalf("catalog:catalog_test - GetOrder = %+v, %v", o, err)
	}
	o.Items[0].Name = "changed"
	again, _ := m.GetOrder(ctx, 100)
	if again.Items[0].Name != "Mug" {
		t.Errorf("catalog:catalog_test - stored items mutated through result")
	}
	if none, _ := m.GetOrder(ctx, 101); none != nil {
		t.Errorf("catalog:catalog_test - unknown order returned")
	}
}

func TestMemory_ListOrders(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 5; i++ {
		m.PutOrder(Order{ID: i, Created: base.Add(time.Duration(i) * time.Hour), Items: []OrderItem{{Name: "x"}}})
	}

	page, err := m.ListOrders(ctx, 1, 2)
	if err != nil {
		t.Fatalf("catalog:catalog_test - ListOrders: %v", err)
	}
	if page.Total != 5 || len(page.Orders) != 2 || page.Orders[0].ID != 5 || page.Orders[1].ID != 4 {
		t.Errorf("catalog:catalog_test - first page = %+v", page)
	}
	if page.Orders[0].Items != nil {
		t.Errorf("catalog:catalog_test - listing should not carry items")
	}

	last, _ := m.ListOrders(ctx, 3, 2)
	if len(last.Orders) != 1 || last.Orders[0].ID != 1 {
		t.Errorf("catalog:catalog_test - last page = %+v", last)
	}

	beyond, _ := m.ListOrders(ctx, 9, 2)
	if beyond.Orders == nil || len(beyond.Orders) != 0 {
		t.Errorf("catalog:catalog_test - beyond last page = %+v, want empty non-nil", beyond.Orders)
	}
}

func TestOrderFromRow(t *testing.T) {
	acc := "7"
	o := orderFromRow(db.Order{ID: 1, AccountID: &acc, Status: "completed", Currency: "EUR", Total: "3.00"})
	if o.AccountID != "7" || o.Status != "completed" || o.Currency != "EUR" {
		t.Errorf("catalog:catalog_test - orderFromRow = %+v", o)
	}
	if guest := orderFromRow(db.Order{ID: 2}); guest.AccountID != "" {
		t.Errorf("catalog:catalog_test - guest order account = %q", guest.AccountID)
	}
}
