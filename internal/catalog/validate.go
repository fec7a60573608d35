package catalog

// validate.go checks one RawRow against the catalog's field rules.
//
// Validation accumulates every defect it finds rather than stopping at the
// first, so a caller can fix all problems in a single pass. The error
// strings are part of the API contract and are reported back verbatim in
// the ingestion summary.

import (
	"math"
	"strconv"
	"strings"
)

// requiredFields lists the columns that must carry a non-blank value,
// in the order their errors are reported.
var requiredFields = [...]string{"sku", "name", "brand", "mrp", "price"}

// Outcome is the verdict for one validated row: Accepted with a normalized
// Product, or rejected with the ordered list of validation errors.
type Outcome struct {
	Product Product
	// SKU echoes the row's sku for failure reporting; nil when the row
	// carried no sku. Only meaningful on rejection.
	SKU    *string
	Errors []string
}

// Accepted reports whether the row passed every check.
func (o Outcome) Accepted() bool { return len(o.Errors) == 0 }

// Validate checks a single row and returns its Outcome. It is a pure
// function: no I/O, no mutation of the input.
//
// Required-field presence is checked on the raw string value, so a field
// that is missing or all-whitespace fails regardless of whether it would
// have parsed. mrp and price parse as floats, quantity as an integer
// defaulting to 0 when absent, empty, or unparseable. The price/mrp
// business rule only applies when both sides parsed.
func Validate(row RawRow) Outcome {
	var errs []string
	for _, field := range requiredFields {
		if strings.TrimSpace(row[field]) == "" {
			errs = append(errs, "Missing "+field)
		}
	}

	mrp, mrpOK := parseDecimal(row["mrp"])
	price, priceOK := parseDecimal(row["price"])
	if mrpOK && priceOK && price > mrp {
		errs = append(errs, "price > mrp")
	}

	quantity := 0
	if raw := strings.TrimSpace(row["quantity"]); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			quantity = n
			if n < 0 {
				errs = append(errs, "negative quantity")
			}
		}
	}

	if len(errs) > 0 {
		return Outcome{SKU: optional(row["sku"]), Errors: errs}
	}

	return Outcome{Product: Product{
		SKU:      row["sku"],
		Name:     row["name"],
		Brand:    row["brand"],
		Color:    optional(row["color"]),
		Size:     optional(row["size"]),
		MRP:      mrp,
		Price:    price,
		Quantity: quantity,
	}}
}

// parseDecimal parses a float value, reporting NaN for values that do not
// parse so the caller can skip rules that need a real number.
func parseDecimal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// optional returns nil for blank values so they persist as NULL.
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
