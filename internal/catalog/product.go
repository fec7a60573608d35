// Package catalog provides the business logic for bulk product ingestion:
// parsing a delimited upload stream, validating each row, and persisting
// accepted rows through an injected store. It has no HTTP dependencies and
// can be driven by any frontend.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
)

// Product is the persisted catalog entity, keyed by SKU.
// Color and Size are optional and nil when absent from the upload.
type Product struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Color    *string `json:"color"`
	Size     *string `json:"size"`
	MRP      float64 `json:"mrp"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// jsonFloat marshals like float64 but renders non-finite values as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON renders the product with NaN-safe numeric fields. A stored
// row whose mrp or price did not parse carries NaN, which encoding/json
// refuses to emit; clients see null for such values.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		MRP   jsonFloat `json:"mrp"`
		Price jsonFloat `json:"price"`
	}{alias(p), jsonFloat(p.MRP), jsonFloat(p.Price)})
}

// RawRow maps normalized column names (trimmed, lowercased) to trimmed
// string values for one parsed input line. It is consumed by Validate and
// discarded afterwards.
type RawRow map[string]string

// FailedRow reports one rejected upload row. SKU is nil when the row did
// not carry a sku value.
type FailedRow struct {
	SKU    *string  `json:"sku"`
	Errors []string `json:"errors"`
}

// Summary is the final result of one ingestion run.
type Summary struct {
	Stored int         `json:"stored"`
	Failed []FailedRow `json:"failed"`
}

// ParseError indicates a structurally malformed upload stream. It aborts
// the remaining batch; rows already stored stay stored.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse csv: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError indicates a persistence failure. Like ParseError it is
// batch-fatal: remaining rows are not processed and earlier rows are not
// rolled back.
type StoreError struct {
	SKU string
	Err error
}

func (e *StoreError) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("store product %q: %v", e.SKU, e.Err)
	}
	return fmt.Sprintf("store product: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
