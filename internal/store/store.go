// Package store persists catalog products in a durable keyed collection.
//
// Two implementations are provided: Postgres for production and Memory for
// tests and database-free runs. Both guarantee at most one record per SKU,
// atomic per-key replacement under concurrent writers, and a stable sku
// ordering for listings.
package store

import (
	"context"

	"github.com/catalogd/catalogd/internal/catalog"
)

// Filter is a conjunction of optional search constraints. A nil field
// imposes no constraint. Price bounds are inclusive.
type Filter struct {
	Brand    *string
	Color    *string
	MinPrice *float64
	MaxPrice *float64
}

// Store is the durable product collection.
//
// Upsert inserts a new record or fully replaces the non-key fields of an
// existing one; repeating an identical upsert is a no-op. List returns
// records ordered by sku, sliced by offset/limit; an out-of-range offset
// yields an empty slice. Search returns every record matching the filter,
// unpaginated.
type Store interface {
	Upsert(ctx context.Context, p catalog.Product) error
	List(ctx context.Context, offset, limit int) ([]catalog.Product, error)
	Search(ctx context.Context, f Filter) ([]catalog.Product, error)
}
