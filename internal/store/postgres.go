package store

// postgres.go implements Store on PostgreSQL via pgx. The upsert relies on
// INSERT ... ON CONFLICT so replacement of an existing sku is a single
// atomic statement; readers never observe a half-written record.

import (
	"context"
	"fmt"
	"strings"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Postgres store using pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the products table if it does not exist yet.
// Called once on startup.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			sku      TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			brand    TEXT NOT NULL,
			color    TEXT,
			size     TEXT,
			mrp      DOUBLE PRECISION NOT NULL,
			price    DOUBLE PRECISION NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return fmt.Errorf("ensure products schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Upsert inserts p or replaces all non-key fields of the record already
// stored under its sku.
func (s *Postgres) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (sku, name, brand, color, size, mrp, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sku) DO UPDATE SET
			name     = EXCLUDED.name,
			brand    = EXCLUDED.brand,
			color    = EXCLUDED.color,
			size     = EXCLUDED.size,
			mrp      = EXCLUDED.mrp,
			price    = EXCLUDED.price,
			quantity = EXCLUDED.quantity`,
		p.SKU, p.Name, p.Brand, p.Color, p.Size, p.MRP, p.Price, p.Quantity)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", p.SKU, err)
	}
	return nil
}

// List returns products ordered by sku, skipping offset records and
// returning at most limit.
func (s *Postgres) List(ctx context.Context, offset, limit int) ([]catalog.Product, error) {
	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("list products: invalid offset %d / limit %d", offset, limit)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sku, name, brand, color, size, mrp, price, quantity
		FROM products
		ORDER BY sku
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

// Search returns every product matching f, ordered by sku.
func (s *Postgres) Search(ctx context.Context, f Filter) ([]catalog.Product, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Brand != nil {
		add("brand = $%d", *f.Brand)
	}
	if f.Color != nil {
		add("color = $%d", *f.Color)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}

	query := "SELECT sku, name, brand, color, size, mrp, price, quantity FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sku"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

// collectProducts scans all rows into products, always returning a non-nil
// slice so empty results serialize as [] rather than null.
func collectProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Brand, &p.Color, &p.Size, &p.MRP, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}
