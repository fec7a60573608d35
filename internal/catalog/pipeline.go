package catalog

// pipeline.go drives one ingestion run: parse, validate, persist.
//
// Rows are processed strictly in stream order, one at a time, so memory
// stays O(1) rows in flight plus the failure report. Validation failures
// are data (collected into the summary); parse and store failures are
// batch-fatal and abort the remaining rows without undoing earlier
// upserts.

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/catalogd/catalogd/internal/logging"
	"github.com/google/uuid"
)

// ContextCheckInterval is how often (in rows) the pipeline checks for
// cancellation. Checking every row is wasteful; a cancelled run behaves
// like a truncated stream either way.
var ContextCheckInterval = 100

// Upserter persists accepted products. Upsert must be insert-or-replace
// keyed by SKU, idempotent, and atomic per key under concurrent calls.
type Upserter interface {
	Upsert(ctx context.Context, p Product) error
}

// Pipeline ingests product uploads into a store.
type Pipeline struct {
	store Upserter
}

// NewPipeline returns a Pipeline persisting through store.
func NewPipeline(store Upserter) *Pipeline {
	return &Pipeline{store: store}
}

// Ingest consumes one upload stream and returns a summary of rows stored
// and rows rejected, in stream order.
//
// Each accepted row is upserted immediately, so a later sku collision
// within the same upload overwrites the earlier occurrence and a
// batch-fatal failure leaves all previously accepted rows stored. The
// returned error is a *ParseError for malformed input, a *StoreError for
// persistence failures, or a context error on cancellation; the summary
// reflects work completed before the failure.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader) (Summary, error) {
	runID := uuid.NewString()
	log := logging.FromContext(ctx).With("run_id", runID)
	start := time.Now()

	counted := newCountingReader(r)
	rows := NewRowReader(counted)
	summary := Summary{Failed: []FailedRow{}}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return summary, fmt.Errorf("ingestion cancelled: %w", err)
			}
		}

		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("upload aborted on malformed input",
				"stored", summary.Stored,
				"rejected", len(summary.Failed),
				"error", err,
			)
			return summary, err
		}

		outcome := Validate(row)
		if !outcome.Accepted() {
			summary.Failed = append(summary.Failed, FailedRow{
				SKU:    outcome.SKU,
				Errors: outcome.Errors,
			})
			continue
		}

		if err := p.store.Upsert(ctx, outcome.Product); err != nil {
			log.Error("upload aborted on store failure",
				"sku", outcome.Product.SKU,
				"stored", summary.Stored,
				"error", err,
			)
			return summary, &StoreError{SKU: outcome.Product.SKU, Err: err}
		}
		summary.Stored++
	}

	log.Info("upload processed",
		"stored", summary.Stored,
		"rejected", len(summary.Failed),
		"bytes", counted.Count(),
		"duration", time.Since(start),
	)
	return summary, nil
}
