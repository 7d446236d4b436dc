package driven

import (
	"context"

	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// EvidenceIndex defines the driven port for the semantic similarity store
// that holds normalized CI report documents.
type EvidenceIndex interface {
	// EnsureCollection creates the backing collection if it does not exist.
	// Idempotent; safe to call before every ingestion.
	EnsureCollection(ctx context.Context) error

	// Upsert writes the documents, overwriting any prior content stored under
	// the same document id. Re-ingesting a run is therefore idempotent; ids
	// are derived deterministically from run and source file, so concurrent
	// writers colliding on an id are writing identical content and
	// last-write-wins is acceptable. An empty slice is a no-op.
	Upsert(ctx context.Context, docs []model.Document) error

	// Query returns up to topK document texts nearest to queryText,
	// restricted to documents ingested for runID, ranked by descending
	// relevance. The runID filter is strict: evidence from other runs must
	// never appear in the result.
	Query(ctx context.Context, queryText string, runID int64, topK int) ([]string, error)
}
