// Package usecase wires the ports (repository, index engine, tokenizer,
// journal) into the application operations: paging in upstream records and
// indexing them, and running a sanitized, validated search.
//
// Grounded on the teacher's own usecase/index_articles_test.go and
// search_articles_with_filters_test.go, whose corresponding implementation
// files were never checked in (the teacher subtree carries only the test
// specifications for this package) — the constructor and Execute shapes
// below satisfy those exact call patterns, generalized from articles/tags to
// enterprise records and from a single-index search engine to the
// multi-prefecture router.
package usecase

import (
	"context"
	"time"

	"search-indexer/port"
)

// IndexRecordsResult reports one page's indexing outcome and the cursor to
// resume from on the next call.
type IndexRecordsResult struct {
	IndexedCount   int
	NextCreatedAt  *time.Time
	NextID         string
	ExhaustedPages bool
}

// IndexRecordsUsecase pages through the upstream repository and writes each
// page straight to the index engine, tokenizing records that arrive without
// pre-computed tokens.
type IndexRecordsUsecase struct {
	repo      port.RecordRepository
	engine    port.IndexEngine
	tokenizer port.Tokenizer
}

// NewIndexRecordsUsecase binds the usecase to its dependencies. tokenizer
// may be nil when every record is expected to already carry ContentTokens.
func NewIndexRecordsUsecase(repo port.RecordRepository, engine port.IndexEngine, tokenizer port.Tokenizer) *IndexRecordsUsecase {
	return &IndexRecordsUsecase{repo: repo, engine: engine, tokenizer: tokenizer}
}

// Execute reads one page of up to batchSize records starting after the given
// cursor, tokenizes any that need it, and writes the page to the index
// engine in a single batch.
func (u *IndexRecordsUsecase) Execute(ctx context.Context, lastCreatedAt *time.Time, lastID string, batchSize int) (IndexRecordsResult, error) {
	records, nextCreatedAt, nextID, err := u.repo.GetRecordsPage(ctx, lastCreatedAt, lastID, batchSize)
	if err != nil {
		return IndexRecordsResult{}, &port.RepositoryError{Op: "GetRecordsPage", Err: err.Error()}
	}

	if len(records) == 0 {
		return IndexRecordsResult{IndexedCount: 0, ExhaustedPages: true}, nil
	}

	for _, rec := range records {
		rec.Normalize()
		if rec.ContentTokens == "" && u.tokenizer != nil {
			tokens := u.tokenizer.TokenizeAndFilter(rec.Content, 2)
			rec.ContentTokens = joinTokens(tokens)
		}
	}

	if err := u.engine.AddBatch(ctx, records); err != nil {
		return IndexRecordsResult{}, &port.IndexEngineError{Op: "AddBatch", Err: err.Error()}
	}

	return IndexRecordsResult{
		IndexedCount:   len(records),
		NextCreatedAt:  nextCreatedAt,
		NextID:         nextID,
		ExhaustedPages: len(records) < batchSize,
	}, nil
}

func joinTokens(tokens []string) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out
}
