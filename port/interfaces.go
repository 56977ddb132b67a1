package port

import (
	"context"
	"time"

	"search-indexer/domain"
)

// SearchFilters narrows a search to a prefecture and/or a (possibly
// pipe-separated) set of customer statuses.
type SearchFilters struct {
	Prefecture string
	CustStatus string
}

// IndexEngine is the typed, on-disk inverted index described in component C:
// one writer at a time, many concurrent readers, a single directory.
type IndexEngine interface {
	Add(ctx context.Context, rec *domain.Record) error
	AddBatch(ctx context.Context, recs []*domain.Record) error
	Search(ctx context.Context, compiledQuery string, limit int, filters SearchFilters, sortKey string) ([]domain.Hit, error)
	Delete(ctx context.Context, id string) (int, error)
	Clear(ctx context.Context) error
	DocCount(ctx context.Context) (uint64, error)
	Close() error
}

// RecordRepository pages through the upstream store of pre-extracted
// enterprise records (component K, the Ingest Gateway).
type RecordRepository interface {
	GetRecordsPage(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Record, *time.Time, string, error)
}

// Tokenizer is the capability component A exposes to the query processor and
// the ingest path: morphological segmentation with the filter pipeline
// already applied.
type Tokenizer interface {
	TokenizeAndFilter(text string, minLength int) []string
}
