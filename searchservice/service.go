// Package searchservice implements component D: it orchestrates the query
// processor and index engine, groups hits by company, and fronts both with
// a bounded LRU cache that is purged in full on every index mutation.
//
// Grounded on the original implementation's search_service.py
// (_group_by_company, cache invalidation on every mutating call).
package searchservice

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"search-indexer/domain"
	"search-indexer/port"
	"search-indexer/queryproc"
)

// DefaultCacheCapacity is the spec's default LRU capacity.
const DefaultCacheCapacity = 128

type cacheKey struct {
	query      string
	limit      int
	prefecture string
	custStatus string
	sortKey    string
}

type cacheValue struct {
	hits     []domain.Hit
	compiled string
}

// Service is one 4.D search service handle, bound to a single index engine.
type Service struct {
	engine port.IndexEngine
	proc   *queryproc.Processor

	cacheMu sync.Mutex
	cache   *lru.Cache[cacheKey, cacheValue]

	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

// New constructs a Service with the default cache capacity.
func New(engine port.IndexEngine, proc *queryproc.Processor) (*Service, error) {
	return NewWithCapacity(engine, proc, DefaultCacheCapacity)
}

// NewWithCapacity constructs a Service with an explicit LRU capacity.
func NewWithCapacity(engine port.IndexEngine, proc *queryproc.Processor, capacity int) (*Service, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c, err := lru.New[cacheKey, cacheValue](capacity)
	if err != nil {
		return nil, &port.QueryError{Op: "New", Err: err.Error()}
	}
	return &Service{engine: engine, proc: proc, cache: c, capacity: capacity}, nil
}

// Result is the response envelope for a search call.
type Result struct {
	GroupedResults []domain.CompanyGroup
	TotalFound     int
	TotalCompanies int
	SearchTimeMS   float64
	ProcessedQuery string
}

// Search implements the 4.D search algorithm: empty query short-circuits;
// otherwise consult the cache, compiling and searching on miss, then group
// by jcn.
func (s *Service) Search(ctx context.Context, query string, limit int, prefecture, custStatus, sortKey string) (Result, error) {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		return Result{SearchTimeMS: elapsedMS(start)}, nil
	}

	key := cacheKey{query: query, limit: limit, prefecture: prefecture, custStatus: custStatus, sortKey: sortKey}

	s.cacheMu.Lock()
	val, ok := s.cache.Get(key)
	s.cacheMu.Unlock()

	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
		compiled := s.proc.Compile(query)
		var hits []domain.Hit
		if compiled != "" {
			var err error
			hits, err = s.engine.Search(ctx, compiled, limit, port.SearchFilters{Prefecture: prefecture, CustStatus: custStatus}, sortKey)
			if err != nil {
				return Result{}, &port.QueryError{Op: "Search", Err: err.Error()}
			}
		}
		val = cacheValue{hits: hits, compiled: compiled}
		s.cacheMu.Lock()
		s.cache.Add(key, val)
		s.cacheMu.Unlock()
	}

	groups := domain.GroupByJCN(val.hits)
	return Result{
		GroupedResults: groups,
		TotalFound:     len(val.hits),
		TotalCompanies: len(groups),
		SearchTimeMS:   elapsedMS(start),
		ProcessedQuery: val.compiled,
	}, nil
}

// Add indexes one record and purges the cache before returning.
func (s *Service) Add(ctx context.Context, rec *domain.Record) error {
	if err := s.engine.Add(ctx, rec); err != nil {
		return err
	}
	s.purge()
	return nil
}

// AddBatch indexes many records atomically and purges the cache before
// returning.
func (s *Service) AddBatch(ctx context.Context, recs []*domain.Record) error {
	if err := s.engine.AddBatch(ctx, recs); err != nil {
		return err
	}
	s.purge()
	return nil
}

// Delete removes one record by id and purges the cache before returning.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	n, err := s.engine.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.purge()
	return n, nil
}

// Clear erases the index and purges the cache before returning.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.engine.Clear(ctx); err != nil {
		return err
	}
	s.purge()
	return nil
}

func (s *Service) purge() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// Stats is the {total_documents, cache_hits, cache_misses, cache_size,
// cache_capacity} response the spec describes.
type Stats struct {
	TotalDocuments uint64
	CacheHits      int64
	CacheMisses    int64
	CacheSize      int
	CacheCapacity  int
}

// Stats reports current document count and cache counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	n, err := s.engine.DocCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	s.cacheMu.Lock()
	size := s.cache.Len()
	s.cacheMu.Unlock()
	return Stats{
		TotalDocuments: n,
		CacheHits:      s.hits.Load(),
		CacheMisses:    s.misses.Load(),
		CacheSize:      size,
		CacheCapacity:  s.capacity,
	}, nil
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
