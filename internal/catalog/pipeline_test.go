package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// memStore is a minimal Upserter recording products by sku.
type memStore struct {
	mu       sync.Mutex
	products map[string]Product
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]Product)}
}

func (m *memStore) Upsert(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.SKU] = p
	return nil
}

func (m *memStore) get(sku string) (Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[sku]
	return p, ok
}

// flakyStore fails every upsert after the first n succeed.
type flakyStore struct {
	st    *memStore
	n     int
	calls int
}

func (f *flakyStore) Upsert(ctx context.Context, p Product) error {
	f.calls++
	if f.calls > f.n {
		return errors.New("connection refused")
	}
	return f.st.Upsert(ctx, p)
}

const header = "sku,name,brand,color,size,mrp,price,quantity\n"

func ingest(t *testing.T, store Upserter, csv string) (Summary, error) {
	t.Helper()
	return NewPipeline(store).Ingest(context.Background(), strings.NewReader(csv))
}

func TestIngest_ValidRows(t *testing.T) {
	st := newMemStore()
	input := header +
		"A1,Shoe,Acme,red,42,100,90,5\n" +
		"A2,Boot,Acme,,,200,150,\n"

	summary, err := ingest(t, st, input)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 2 {
		t.Errorf("Stored = %d, want 2", summary.Stored)
	}
	if len(summary.Failed) != 0 {
		t.Errorf("Failed = %v, want empty", summary.Failed)
	}

	p, ok := st.get("A2")
	if !ok {
		t.Fatal("A2 not stored")
	}
	if p.Color != nil || p.Size != nil {
		t.Errorf("optional fields = %v/%v, want nil", p.Color, p.Size)
	}
	if p.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0 for empty cell", p.Quantity)
	}
}

func TestIngest_RejectionsDoNotBlockLaterRows(t *testing.T) {
	st := newMemStore()
	input := header +
		"A1,Shoe,Acme,,,100,120,\n" + // price > mrp
		",Boot,Acme,,,200,150,\n" + // missing sku
		"A3,Sandal,Acme,,,50,40,2\n"

	summary, err := ingest(t, st, input)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 1 {
		t.Errorf("Stored = %d, want 1", summary.Stored)
	}
	if len(summary.Failed) != 2 {
		t.Fatalf("Failed = %d rows, want 2", len(summary.Failed))
	}

	// Failures keep stream order.
	first, second := summary.Failed[0], summary.Failed[1]
	if first.SKU == nil || *first.SKU != "A1" {
		t.Errorf("Failed[0].SKU = %v, want A1", first.SKU)
	}
	if got, want := fmt.Sprint(first.Errors), "[price > mrp]"; got != want {
		t.Errorf("Failed[0].Errors = %v, want %v", got, want)
	}
	if second.SKU != nil {
		t.Errorf("Failed[1].SKU = %v, want nil", second.SKU)
	}
	if got, want := fmt.Sprint(second.Errors), "[Missing sku]"; got != want {
		t.Errorf("Failed[1].Errors = %v, want %v", got, want)
	}

	if _, ok := st.get("A3"); !ok {
		t.Error("valid row after rejections was not stored")
	}
}

func TestIngest_LastWriteWinsWithinUpload(t *testing.T) {
	st := newMemStore()
	input := header +
		"A1,Shoe,Acme,,,100,90,1\n" +
		"A1,Sneaker,Acme,,,100,80,2\n"

	summary, err := ingest(t, st, input)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 2 {
		t.Errorf("Stored = %d, want 2 (each accepted row upserts)", summary.Stored)
	}

	p, _ := st.get("A1")
	if p.Name != "Sneaker" {
		t.Errorf("Name = %q, want last occurrence to win", p.Name)
	}
}

func TestIngest_BlankRowsCountNowhere(t *testing.T) {
	st := newMemStore()
	input := header + "\n,,,,,,,\nA1,Shoe,Acme,,,100,90,\n  ,  ,,,,,,\n"

	summary, err := ingest(t, st, input)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 1 || len(summary.Failed) != 0 {
		t.Errorf("summary = %+v, want 1 stored / 0 failed", summary)
	}
}

func TestIngest_AllRowsRejected(t *testing.T) {
	st := newMemStore()
	input := header + ",,,,,,,x\nA2,Boot,Acme,,,100,150,\n"

	summary, err := ingest(t, st, input)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 0 {
		t.Errorf("Stored = %d, want 0", summary.Stored)
	}
	if len(summary.Failed) != 2 {
		t.Errorf("Failed = %d rows, want every rejected row reported", len(summary.Failed))
	}
}

func TestIngest_ParseErrorKeepsEarlierRows(t *testing.T) {
	st := newMemStore()
	input := header +
		"A1,Shoe,Acme,,,100,90,\n" +
		"A2,\"Boot,Acme,,,200,150,\n" // unterminated quote

	summary, err := ingest(t, st, input)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if summary.Stored != 1 {
		t.Errorf("Stored = %d, want the row before the failure kept", summary.Stored)
	}
	if _, ok := st.get("A1"); !ok {
		t.Error("A1 should remain stored after parse failure")
	}
}

func TestIngest_StoreErrorAbortsBatch(t *testing.T) {
	st := &flakyStore{st: newMemStore(), n: 1}
	input := header +
		"A1,Shoe,Acme,,,100,90,\n" +
		"A2,Boot,Acme,,,200,150,\n" +
		"A3,Sandal,Acme,,,50,40,\n"

	summary, err := ingest(t, st, input)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want *StoreError", err)
	}
	if storeErr.SKU != "A2" {
		t.Errorf("StoreError.SKU = %q, want A2", storeErr.SKU)
	}
	if summary.Stored != 1 {
		t.Errorf("Stored = %d, want 1 (rows before the failure stay stored)", summary.Stored)
	}
	if st.calls != 2 {
		t.Errorf("upsert calls = %d, want processing to stop at the failure", st.calls)
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(newMemStore()).Ingest(ctx, strings.NewReader(header+"A1,Shoe,Acme,,,100,90,\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestIngest_EmptyStream(t *testing.T) {
	summary, err := ingest(t, newMemStore(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.Stored != 0 || len(summary.Failed) != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}
