package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides database access for accounts, sessions and catalog data.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// WithTx returns a Repository whose statements run inside tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, q: tx}
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("%s - no pool configured", repoLogPrefix)
	}
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%s - ping failed: %w", repoLogPrefix, err)
	}
	return nil
}

// =========================================================================
// ACCOUNT OPERATIONS
// =========================================================================

// ListAccountsByMetaKey lists accounts that carry metadata under key for the
// tenant, ordered by id.
func (r *Repository) ListAccountsByMetaKey(ctx context.Context, key, tenant string) ([]Account, error) {
	slog.Debug(fmt.Sprintf("%s - ListAccountsByMetaKey key=%s tenant=%s", repoLogPrefix, key, tenant))

	rows, err := r.q.Query(ctx,
		`SELECT a.id::text, a.username, a.email, a.created
		 FROM accounts a
		 JOIN account_meta m ON m.account_id = a.id
		 WHERE m.meta_key = $1 AND m.tenant_id = $2
		 ORDER BY a.id`, key, tenant)
	if err != nil {
		return nil, fmt.Errorf("%s - ListAccountsByMetaKey query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Created); err != nil {
			return nil, fmt.Errorf("%s - scan account failed: %w", repoLogPrefix, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - ListAccountsByMetaKey rows failed: %w", repoLogPrefix, err)
	}
	return accounts, nil
}

// GetAccountMeta returns one metadata row, or nil when unset.
func (r *Repository) GetAccountMeta(ctx context.Context, accountID, key, tenant string) (*AccountMeta, error) {
	var m AccountMeta
	err := r.q.QueryRow(ctx,
		`SELECT account_id::text, tenant_id, meta_key, meta_value, modified
		 FROM account_meta
		 WHERE account_id = $1::bigint AND meta_key = $2 AND tenant_id = $3`,
		accountID, key, tenant).Scan(&m.AccountID, &m.TenantID, &m.Key, &m.Value, &m.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetAccountMeta failed: %w", repoLogPrefix, err)
	}
	return &m, nil
}

// GetCredentials finds an account and its password hash by username, or nil.
func (r *Repository) GetCredentials(ctx context.Context, username string) (*AccountCredentials, error) {
	var c AccountCredentials
	err := r.q.QueryRow(ctx,
		`SELECT id::text, username, email, created, password_hash
		 FROM accounts
		 WHERE username = $1`, username).
		Scan(&c.ID, &c.Username, &c.Email, &c.Created, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetCredentials failed: %w", repoLogPrefix, err)
	}
	return &c, nil
}

// UpsertAccountParams holds parameters for UpsertAccount.
type UpsertAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// UpsertAccount creates an account or updates the one with the same username.
func (r *Repository) UpsertAccount(ctx context.Context, params UpsertAccountParams) (*Account, error) {
	var a Account
	err := r.q.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE SET
		   email = EXCLUDED.email,
		   password_hash = CASE WHEN EXCLUDED.password_hash = '' THEN accounts.password_hash ELSE EXCLUDED.password_hash END,
		   modified = NOW()
		 RETURNING id::text, username, email, created`,
		params.Username, params.Email, params.PasswordHash).Scan(&a.ID, &a.Username, &a.Email, &a.Created)
	if err != nil {
		return nil, fmt.Errorf("%s - UpsertAccount failed: %w", repoLogPrefix, err)
	}
	return &a, nil
}

// SetAccountMetaParams holds parameters for SetAccountMeta.
type SetAccountMetaParams struct {
	AccountID string
	TenantID  string
	Key       string
	// Value must be a JSON document.
	Value []byte
}

// SetAccountMeta stores one metadata document, replacing any previous value.
func (r *Repository) SetAccountMeta(ctx context.Context, params SetAccountMetaParams) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO account_meta (account_id, tenant_id, meta_key, meta_value)
		 VALUES ($1::bigint, $2, $3, $4::jsonb)
		 ON CONFLICT (account_id, tenant_id, meta_key) DO UPDATE SET
		   meta_value = EXCLUDED.meta_value,
		   modified = NOW()`,
		params.AccountID, params.TenantID, params.Key, string(params.Value))
	if err != nil {
		return fmt.Errorf("%s - SetAccountMeta failed: %w", repoLogPrefix, err)
	}
	return nil
}

// =========================================================================
// SESSION OPERATIONS
// =========================================================================

// InsertSession records an API session.
func (r *Repository) InsertSession(ctx context.Context, sessionID, accountID string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO api_sessions (id, account_id) VALUES ($1::uuid, $2::bigint)`,
		sessionID, accountID)
	if err != nil {
		return fmt.Errorf("%s - InsertSession failed: %w", repoLogPrefix, err)
	}
	return nil
}

// DeleteSession removes an API session. Unknown ids are not an error.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM api_sessions WHERE id = $1::uuid`, sessionID); err != nil {
		return fmt.Errorf("%s - DeleteSession failed: %w", repoLogPrefix, err)
	}
	return nil
}

// CountSessions returns the number of open sessions.
func (r *Repository) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*)::int FROM api_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s - CountSessions failed: %w", repoLogPrefix, err)
	}
	return n, nil
}

// =========================================================================
// CATALOG OPERATIONS
// =========================================================================

// GetProduct finds a product by id, or nil.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.q.QueryRow(ctx,
		`SELECT id, sku, name, price::text, stock_quantity, status, created
		 FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity, &p.Status, &p.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetProduct failed: %w", repoLogPrefix, err)
	}
	return &p, nil
}

// UpsertProduct creates or replaces a product.
func (r *Repository) UpsertProduct(ctx context.Context, p Product) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO products (id, sku, name, price, stock_quantity, status)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   sku = EXCLUDED.sku,
		   name = EXCLUDED.name,
		   price = EXCLUDED.price,
		   stock_quantity = EXCLUDED.stock_quantity,
		   status = EXCLUDED.status`,
		p.ID, p.SKU, p.Name, numericOrZero(p.Price), p.StockQuantity, p.Status)
	if err != nil {
		return fmt.Errorf("%s - UpsertProduct %d failed: %w", repoLogPrefix, p.ID, err)
	}
	return nil
}

// GetOrder finds an order and its items by id, or nil.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, account_id::text, status, currency, total::text, created
		 FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil || o == nil {
		return o, err
	}

	rows, err := r.q.Query(ctx,
		`SELECT line, product_id, name, quantity, total::text
		 FROM order_items WHERE order_id = $1 ORDER BY line`, id)
	if err != nil {
		return nil, fmt.Errorf("%s - GetOrder items query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.Line, &it.ProductID, &it.Name, &it.Quantity, &it.Total); err != nil {
			return nil, fmt.Errorf("%s - scan order item failed: %w", repoLogPrefix, err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - GetOrder items rows failed: %w", repoLogPrefix, err)
	}
	return o, nil
}

// ListOrdersParams holds parameters for ListOrders.
type ListOrdersParams struct {
	Page  int
	Limit int
}

// ListOrders lists orders newest first without their items, plus the total count.
func (r *Repository) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, int, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*)::int FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s - ListOrders count failed: %w", repoLogPrefix, err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, account_id::text, status, currency, total::text, created
		 FROM orders
		 ORDER BY created DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s - ListOrders query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s - ListOrders rows failed: %w", repoLogPrefix, err)
	}
	return orders, total, nil
}

// UpsertOrder creates or replaces an order and its items.
func (r *Repository) UpsertOrder(ctx context.Context, o Order) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO orders (id, account_id, status, currency, total)
		 VALUES ($1, $2::bigint, $3, $4, $5::numeric)
		 ON CONFLICT (id) DO UPDATE SET
		   account_id = EXCLUDED.account_id,
		   status = EXCLUDED.status,
		   currency = EXCLUDED.currency,
		   total = EXCLUDED.total`,
		o.ID, o.AccountID, o.Status, o.Currency, numericOrZero(o.Total))
	if err != nil {
		return fmt.Errorf("%s - UpsertOrder %d failed: %w", repoLogPrefix, o.ID, err)
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("%s - UpsertOrder %d clear items failed: %w", repoLogPrefix, o.ID, err)
	}
	for i, it := range o.Items {
		line := it.Line
		if line == 0 {
			line = i + 1
		}
		_, err := r.q.Exec(ctx,
			`INSERT INTO order_items (order_id, line, product_id, name, quantity, total)
			 VALUES ($1, $2, $3, $4, $5, $6::numeric)`,
			o.ID, line, it.ProductID, it.Name, it.Quantity, numericOrZero(it.Total))
		if err != nil {
			return fmt.Errorf("%s - UpsertOrder %d item %d failed: %w", repoLogPrefix, o.ID, line, err)
		}
	}
	return nil
}

// =========================================================================
// SCAN HELPERS
// =========================================================================

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.AccountID, &o.Status, &o.Currency, &o.Total, &o.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan order failed: %w", repoLogPrefix, err)
	}
	return &o, nil
}

func numericOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
