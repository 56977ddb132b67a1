package router

import (
	"context"

	"search-indexer/domain"
	"search-indexer/port"
)

// RoutingIndexEngine adapts a Router to the port.IndexEngine interface the
// ingest usecase writes through, splitting each batch by record.Prefecture
// and dispatching to the matching shard. It lets the ingest pipeline stay
// prefecture-agnostic even though storage underneath is sharded per
// prefecture.
type RoutingIndexEngine struct {
	router *Router
}

// NewRoutingIndexEngine wraps r for use as a port.IndexEngine.
func NewRoutingIndexEngine(r *Router) *RoutingIndexEngine {
	return &RoutingIndexEngine{router: r}
}

// Add indexes rec into its own prefecture's shard.
func (e *RoutingIndexEngine) Add(ctx context.Context, rec *domain.Record) error {
	rec.Normalize()
	return e.router.AddDocument(ctx, rec.Prefecture, rec)
}

// AddBatch groups recs by prefecture and writes each group to its shard.
func (e *RoutingIndexEngine) AddBatch(ctx context.Context, recs []*domain.Record) error {
	grouped := make(map[string][]*domain.Record)
	for _, rec := range recs {
		rec.Normalize()
		grouped[rec.Prefecture] = append(grouped[rec.Prefecture], rec)
	}
	for prefecture, batch := range grouped {
		if err := e.router.AddDocumentsBatch(ctx, prefecture, batch); err != nil {
			return err
		}
	}
	return nil
}

// Search is not meaningful on a multi-shard adapter; callers search through
// the Router directly instead.
func (e *RoutingIndexEngine) Search(ctx context.Context, compiledQuery string, limit int, filters port.SearchFilters, sortKey string) ([]domain.Hit, error) {
	return nil, &port.RouterError{Op: "Search", Err: "search through Router.Search, not the routing index engine"}
}

// Delete requires the record's prefecture; since the adapter has no way to
// learn it from an id alone, callers should use Router.DeleteDocument
// directly. Delete always reports zero removed.
func (e *RoutingIndexEngine) Delete(ctx context.Context, id string) (int, error) {
	return 0, &port.RouterError{Op: "Delete", Err: "delete through Router.DeleteDocument, which takes a prefecture"}
}

// Clear erases every configured shard.
func (e *RoutingIndexEngine) Clear(ctx context.Context) error {
	for prefecture := range e.router.services {
		if err := e.router.ClearIndex(ctx, prefecture); err != nil {
			return err
		}
	}
	return nil
}

// DocCount sums document counts across every configured shard.
func (e *RoutingIndexEngine) DocCount(ctx context.Context) (uint64, error) {
	stats, err := e.router.AllStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.TotalDocuments, nil
}

// Close is a no-op; shard lifetimes are owned by whoever built the Router.
func (e *RoutingIndexEngine) Close() error {
	return nil
}
