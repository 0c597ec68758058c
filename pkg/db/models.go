package db

import "time"

// Account represents a row in the accounts table without its password hash.
type Account struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Created  time.Time `json:"created"`
}

// AccountCredentials pairs an account with its stored bcrypt hash.
type AccountCredentials struct {
	Account
	PasswordHash string `json:"-"`
}

// AccountMeta represents a row in the account_meta table. Value is the raw
// jsonb document.
type AccountMeta struct {
	AccountID string    `json:"account_id"`
	TenantID  string    `json:"tenant_id"`
	Key       string    `json:"meta_key"`
	Value     []byte    `json:"meta_value"`
	Modified  time.Time `json:"modified"`
}

// Product represents a row in the products table. Price is the decimal text
// form of the NUMERIC column.
type Product struct {
	ID            int64     `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Status        string    `json:"status"`
	Created       time.Time `json:"created"`
}

// Order represents a row in the orders table.
type Order struct {
	ID        int64       `json:"id"`
	AccountID *string     `json:"account_id,omitempty"`
	Status    string      `json:"status"`
	Currency  string      `json:"currency"`
	Total     string      `json:"total"`
	Created   time.Time   `json:"created"`
	Items     []OrderItem `json:"items,omitempty"`
}

// OrderItem represents a row in the order_items table.
type OrderItem struct {
	Line      int    `json:"line"`
	ProductID *int64 `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}
