// Package index implements component C: a persistent, on-disk, typed
// inverted index over bleve/v2, with a single writer serialized per
// directory, many concurrent readers, and "recreate on corruption" recovery
// on open.
//
// Grounded on the original implementation's whoosh_simple.py (schema shape,
// search/filter/sort algorithm, matched-term decoding), re-expressed over
// bleve's segment-based index since it is the one library in the retrieved
// corpus offering an embedded, on-disk, typed index with term-location
// retrieval (see DESIGN.md for why this replaces the teacher's
// meilisearch-go driver).
package index

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"search-indexer/domain"
	"search-indexer/port"
)

// Engine is one 4.C index engine handle, scoped to a single directory.
type Engine struct {
	path string
	idx  bleve.Index

	// writerMu serializes writers; bleve.Index is safe for concurrent
	// readers and a single concurrent writer internally, but the spec
	// requires an explicit single-writer-at-a-time discipline at this
	// layer so callers observe a clean boolean failure instead of
	// interleaved batches.
	writerMu sync.Mutex

	logger *slog.Logger
}

var _ port.IndexEngine = (*Engine)(nil)

// Open opens the index at path, creating it if missing. If the directory
// exists but fails to open (corruption), the engine wipes and recreates it;
// this is the spec's sole, documented, destructive recovery mechanism.
func Open(path string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	idx, err := bleve.Open(path)
	switch {
	case err == nil:
		return &Engine{path: path, idx: idx, logger: logger}, nil
	case err == bleve.ErrorIndexPathDoesNotExist:
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, &port.IndexEngineError{Op: "Open", Err: err.Error()}
		}
		return &Engine{path: path, idx: idx, logger: logger}, nil
	default:
		lost := int64(-1)
		if stale, openErr := bleve.Open(path); openErr == nil {
			if c, cErr := stale.DocCount(); cErr == nil {
				lost = int64(c)
			}
			_ = stale.Close()
		}
		logger.Error("index: recreating corrupt directory, data lost", "path", path, "lost_docs", lost, "cause", err)
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, &port.IndexEngineError{Op: "Open", Err: rmErr.Error()}
		}
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, &port.IndexEngineError{Op: "Open", Err: err.Error()}
		}
		return &Engine{path: path, idx: idx, logger: logger}, nil
	}
}

// Add writes one document, acquiring the writer lock for the duration.
func (e *Engine) Add(ctx context.Context, rec *domain.Record) error {
	return e.AddBatch(ctx, []*domain.Record{rec})
}

// AddBatch writes many documents atomically: one failure rolls back the
// whole batch (bleve.Batch is applied as a single commit).
func (e *Engine) AddBatch(ctx context.Context, recs []*domain.Record) error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	batch := e.idx.NewBatch()
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		rec.Normalize()
		if err := rec.Validate(); err != nil {
			return &port.IndexEngineError{Op: "AddBatch", Err: err.Error()}
		}
		if err := batch.Index(rec.ID, toIndexable(rec)); err != nil {
			return &port.IndexEngineError{Op: "AddBatch", Err: err.Error()}
		}
	}
	if err := e.idx.Batch(batch); err != nil {
		return &port.IndexEngineError{Op: "AddBatch", Err: err.Error()}
	}
	return nil
}

// Delete removes one document by id, returning 1 if it was present, 0
// otherwise (bleve.Delete is idempotent, so presence is checked first).
func (e *Engine) Delete(ctx context.Context, id string) (int, error) {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	doc, err := e.idx.Document(id)
	if err != nil {
		return 0, &port.IndexEngineError{Op: "Delete", Err: err.Error()}
	}
	if doc == nil {
		return 0, nil
	}
	if err := e.idx.Delete(id); err != nil {
		return 0, &port.IndexEngineError{Op: "Delete", Err: err.Error()}
	}
	return 1, nil
}

// Clear erases and recreates the index directory.
func (e *Engine) Clear(ctx context.Context) error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	if err := e.idx.Close(); err != nil {
		return &port.IndexEngineError{Op: "Clear", Err: err.Error()}
	}
	if err := os.RemoveAll(e.path); err != nil {
		return &port.IndexEngineError{Op: "Clear", Err: err.Error()}
	}
	idx, err := bleve.New(e.path, buildMapping())
	if err != nil {
		return &port.IndexEngineError{Op: "Clear", Err: err.Error()}
	}
	e.idx = idx
	return nil
}

// DocCount returns the number of documents currently in the index.
func (e *Engine) DocCount(ctx context.Context) (uint64, error) {
	n, err := e.idx.DocCount()
	if err != nil {
		return 0, &port.IndexEngineError{Op: "DocCount", Err: err.Error()}
	}
	return n, nil
}

// Close releases the underlying index handle.
func (e *Engine) Close() error {
	return e.idx.Close()
}

func toIndexable(rec *domain.Record) indexableRecord {
	contentTokens := rec.ContentTokens
	return indexableRecord{
		"_type":                   recordDocType,
		"id":                      rec.ID,
		"url":                     rec.URL,
		"url_name":                rec.URLName,
		"content_tokens":          contentTokens,
		"jcn":                     rec.JCN,
		"cust_status2":            rec.CustStatus2,
		"company_name_kj":         rec.CompanyNameKJ,
		"company_address_all":     rec.CompanyAddress,
		"prefecture":              rec.Prefecture,
		"city":                    rec.City,
		"large_class_name":        rec.LargeClassName,
		"middle_class_name":       rec.MiddleClassName,
		"curr_setlmnt_taking_amt": rec.CurrSetlmntTakingAmt,
		"employee_all_num":        rec.EmployeeAllNum,
		"district_finalized_cd":   rec.DistrictFinalizedCD,
		"branch_name_cd":          rec.BranchNameCD,
		"main_domain_url":         rec.MainDomainURL,
	}
}
