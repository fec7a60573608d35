package catalog

// reader.go decodes an upload stream into a lazy sequence of RawRow values.
//
// The first record is the header; its column names are trimmed and
// lowercased so downstream code sees a canonical key set regardless of the
// input's casing or padding. Every cell value is trimmed, rows whose cells
// are all blank are skipped, and columns with no matching header (or
// headers with no matching cell) are ignored.

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// RowReader yields RawRow values from a delimited text stream. It is
// single-pass and non-restartable: once Next returns io.EOF or an error,
// the stream is exhausted.
type RowReader struct {
	cr      *csv.Reader
	columns []string
}

// NewRowReader wraps r for row-by-row decoding. The stream is BOM-stripped
// and UTF-8 checked before CSV parsing.
func NewRowReader(r io.Reader) *RowReader {
	cr := csv.NewReader(newUTF8Checker(newBOMStripper(r)))
	// Input rows may have ragged lengths; missing trailing cells are
	// treated as empty rather than failing the whole upload.
	cr.FieldsPerRecord = -1
	return &RowReader{cr: cr}
}

// Next returns the next non-blank data row. It returns io.EOF when the
// stream is exhausted and a *ParseError when the stream is structurally
// malformed.
func (rr *RowReader) Next() (RawRow, error) {
	for {
		record, err := rr.cr.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, wrapParseErr(err)
		}

		if rr.columns == nil {
			cols := make([]string, len(record))
			for i, name := range record {
				cols[i] = strings.ToLower(strings.TrimSpace(name))
			}
			rr.columns = cols
			continue
		}

		row := make(RawRow, len(rr.columns))
		blank := true
		for i, col := range rr.columns {
			if col == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			row[col] = value
			if value != "" {
				blank = false
			}
		}
		// Cells beyond the header are unnamed; they still count against
		// blank-line detection so a stray value is not silently dropped
		// as an empty row.
		for i := len(rr.columns); i < len(record); i++ {
			if strings.TrimSpace(record[i]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		return row, nil
	}
}

// wrapParseErr converts a csv or encoding failure into a *ParseError,
// carrying the input line number when the csv package reports one.
func wrapParseErr(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}
