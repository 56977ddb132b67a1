// Package router implements component E: the multi-index router. It holds
// one search service per prefecture behind a fixed, startup-configured map
// and requires the caller to name a prefecture on every search — it never
// fans a query out across shards.
//
// Grounded on the original implementation's multi_index_search_service.py
// (required-prefecture validation, per-prefecture stats with a
// total_documents rollup, prefecture-name decoration on results).
package router

import (
	"context"

	"search-indexer/domain"
	"search-indexer/port"
	"search-indexer/searchservice"
)

// PrefectureConfig names one configured shard.
type PrefectureConfig struct {
	Name string // display name, e.g. "東京都"
}

// Router dispatches by prefecture to a fixed set of search services, one per
// shard, configured at construction time.
type Router struct {
	services map[string]*searchservice.Service
	configs  map[string]PrefectureConfig
}

// New builds a Router from a prefecture -> service map and the matching
// display-name configuration. Both maps are expected to share the same keys.
// A config with no service is still listed by AvailablePrefectures but cannot
// be searched; a service with no config is searchable, with an empty display
// name, but is not listed.
func New(services map[string]*searchservice.Service, configs map[string]PrefectureConfig) *Router {
	if services == nil {
		services = map[string]*searchservice.Service{}
	}
	if configs == nil {
		configs = map[string]PrefectureConfig{}
	}
	return &Router{services: services, configs: configs}
}

// AvailablePrefecture is one entry of the prefecture-selection list.
type AvailablePrefecture struct {
	Value string
	Name  string
}

// AvailablePrefectures lists the configured shards for UI selection.
func (r *Router) AvailablePrefectures() []AvailablePrefecture {
	out := make([]AvailablePrefecture, 0, len(r.configs))
	for pref, cfg := range r.configs {
		out = append(out, AvailablePrefecture{Value: pref, Name: cfg.Name})
	}
	return out
}

// RouterError is returned for prefecture errors this layer can surface
// without calling into a search service (missing/unknown prefecture).
type RouterError = port.RouterError

// Result wraps a searchservice.Result decorated with prefecture identity.
// Failures are reported through Search's error return, not through Result.
type Result struct {
	searchservice.Result
	Prefecture     string
	PrefectureName string
}

// Search requires a non-empty, configured prefecture and delegates to that
// shard's search service with prefecture left blank (the shard is already
// scoped to it).
func (r *Router) Search(ctx context.Context, query string, prefecture string, limit int, custStatus, sortKey string) (Result, error) {
	if prefecture == "" {
		return Result{}, &port.RouterError{Op: "Search", Err: "prefecture selection is required"}
	}
	svc, ok := r.services[prefecture]
	if !ok {
		return Result{}, &port.RouterError{Op: "Search", Err: "prefecture \"" + prefecture + "\" not available"}
	}

	res, err := svc.Search(ctx, query, limit, "", custStatus, sortKey)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Result:         res,
		Prefecture:     prefecture,
		PrefectureName: r.configs[prefecture].Name,
	}, nil
}

// Stats is the per-prefecture stats envelope decorated with its name.
type Stats struct {
	searchservice.Stats
	Prefecture     string
	PrefectureName string
}

// AllStats is the aggregate stats response across every configured shard.
type AllStats struct {
	Prefectures          map[string]Stats
	TotalDocuments       uint64
	AvailablePrefectures []AvailablePrefecture
}

// StatsFor reports stats for one prefecture.
func (r *Router) StatsFor(ctx context.Context, prefecture string) (Stats, error) {
	svc, ok := r.services[prefecture]
	if !ok {
		return Stats{}, &port.RouterError{Op: "StatsFor", Err: "prefecture \"" + prefecture + "\" not available"}
	}
	s, err := svc.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Stats: s, Prefecture: prefecture, PrefectureName: r.configs[prefecture].Name}, nil
}

// AllStats reports stats for every configured shard plus a total_documents
// rollup across all of them.
func (r *Router) AllStats(ctx context.Context) (AllStats, error) {
	out := AllStats{
		Prefectures:          make(map[string]Stats, len(r.services)),
		AvailablePrefectures: r.AvailablePrefectures(),
	}
	for pref, svc := range r.services {
		s, err := svc.Stats(ctx)
		if err != nil {
			return AllStats{}, err
		}
		out.Prefectures[pref] = Stats{Stats: s, Prefecture: pref, PrefectureName: r.configs[pref].Name}
		out.TotalDocuments += s.TotalDocuments
	}
	return out, nil
}

// AddDocument indexes one record into the named prefecture's shard.
func (r *Router) AddDocument(ctx context.Context, prefecture string, rec *domain.Record) error {
	svc, ok := r.services[prefecture]
	if !ok {
		return &port.RouterError{Op: "AddDocument", Err: "prefecture \"" + prefecture + "\" not available"}
	}
	return svc.Add(ctx, rec)
}

// AddDocumentsBatch indexes many records atomically into the named
// prefecture's shard.
func (r *Router) AddDocumentsBatch(ctx context.Context, prefecture string, recs []*domain.Record) error {
	svc, ok := r.services[prefecture]
	if !ok {
		return &port.RouterError{Op: "AddDocumentsBatch", Err: "prefecture \"" + prefecture + "\" not available"}
	}
	return svc.AddBatch(ctx, recs)
}

// DeleteDocument removes one record by id from the named prefecture's shard.
func (r *Router) DeleteDocument(ctx context.Context, prefecture, id string) (int, error) {
	svc, ok := r.services[prefecture]
	if !ok {
		return 0, &port.RouterError{Op: "DeleteDocument", Err: "prefecture \"" + prefecture + "\" not available"}
	}
	return svc.Delete(ctx, id)
}

// ClearIndex erases the named prefecture's shard.
func (r *Router) ClearIndex(ctx context.Context, prefecture string) error {
	svc, ok := r.services[prefecture]
	if !ok {
		return &port.RouterError{Op: "ClearIndex", Err: "prefecture \"" + prefecture + "\" not available"}
	}
	return svc.Clear(ctx)
}
