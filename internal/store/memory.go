package store

// memory.go implements Store as a mutex-guarded map. It backs tests and
// database-free runs; semantics mirror the Postgres implementation,
// including the stable sku ordering.

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/catalogd/catalogd/internal/catalog"
)

// Memory is an in-process Store keyed by sku.
type Memory struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{products: make(map[string]catalog.Product)}
}

// Upsert inserts or fully replaces the record stored under p's sku.
func (s *Memory) Upsert(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.SKU] = p
	return nil
}

// List returns products ordered by sku, sliced by offset and limit.
func (s *Memory) List(_ context.Context, offset, limit int) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("list products: invalid offset %d / limit %d", offset, limit)
	}

	all := s.sortedLocked()
	if offset >= len(all) {
		return []catalog.Product{}, nil
	}
	// Computed as a bound on the remainder so offset+limit cannot
	// overflow for very large limits.
	end := len(all)
	if limit < end-offset {
		end = offset + limit
	}
	return all[offset:end], nil
}

// Search returns every product matching f, ordered by sku.
func (s *Memory) Search(_ context.Context, f Filter) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []catalog.Product{}
	for _, p := range s.sortedLocked() {
		if f.Brand != nil && p.Brand != *f.Brand {
			continue
		}
		if f.Color != nil && (p.Color == nil || *p.Color != *f.Color) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		matches = append(matches, p)
	}
	return matches, nil
}

// Len returns the number of stored products.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// sortedLocked snapshots all products in sku order. Callers must hold at
// least a read lock.
func (s *Memory) sortedLocked() []catalog.Product {
	all := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return all
}
