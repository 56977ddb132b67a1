package searchservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-indexer/domain"
	"search-indexer/port"
	"search-indexer/queryproc"
	"search-indexer/tokenize"
)

// fakeEngine is an in-memory stand-in for port.IndexEngine that counts
// Search calls, used to assert cache hit/miss behavior without bleve.
type fakeEngine struct {
	docs        map[string]*domain.Record
	searchCalls int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{docs: map[string]*domain.Record{}}
}

func (f *fakeEngine) Add(ctx context.Context, rec *domain.Record) error {
	f.docs[rec.ID] = rec
	return nil
}

func (f *fakeEngine) AddBatch(ctx context.Context, recs []*domain.Record) error {
	for _, r := range recs {
		f.docs[r.ID] = r
	}
	return nil
}

func (f *fakeEngine) Search(ctx context.Context, compiledQuery string, limit int, filters port.SearchFilters, sortKey string) ([]domain.Hit, error) {
	f.searchCalls++
	hits := make([]domain.Hit, 0, len(f.docs))
	for _, d := range f.docs {
		hits = append(hits, domain.Hit{ID: d.ID, JCN: d.JCN, Content: d.ContentTokens})
	}
	return hits, nil
}

func (f *fakeEngine) Delete(ctx context.Context, id string) (int, error) {
	if _, ok := f.docs[id]; !ok {
		return 0, nil
	}
	delete(f.docs, id)
	return 1, nil
}

func (f *fakeEngine) Clear(ctx context.Context) error {
	f.docs = map[string]*domain.Record{}
	return nil
}

func (f *fakeEngine) DocCount(ctx context.Context) (uint64, error) {
	return uint64(len(f.docs)), nil
}

func (f *fakeEngine) Close() error { return nil }

var _ port.IndexEngine = (*fakeEngine)(nil)

func newTestService(t *testing.T) (*Service, *fakeEngine) {
	t.Helper()
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	eng := newFakeEngine()
	svc, err := New(eng, queryproc.New(tok))
	require.NoError(t, err)
	return svc, eng
}

func TestService_EmptyQueryReturnsZeroResultEnvelope(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Search(context.Background(), "   ", 10, "", "", "")
	require.NoError(t, err)
	assert.Zero(t, res.TotalFound)
	assert.Zero(t, res.TotalCompanies)
}

func TestService_RepeatedSearchIsCacheHitOnSecondCall(t *testing.T) {
	svc, eng := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, &domain.Record{ID: "a", JCN: "1", ContentTokens: "機械学習"}))

	_, err := svc.Search(ctx, "機械学習", 10, "", "", "")
	require.NoError(t, err)
	_, err = svc.Search(ctx, "機械学習", 10, "", "", "")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, 1, eng.searchCalls)
}

func TestService_AddBatchPurgesCache(t *testing.T) {
	svc, eng := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, &domain.Record{ID: "a", JCN: "1", ContentTokens: "機械学習"}))

	_, err := svc.Search(ctx, "機械学習", 10, "", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.AddBatch(ctx, []*domain.Record{{ID: "b", JCN: "2", ContentTokens: "開発"}}))

	_, err = svc.Search(ctx, "機械学習", 10, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, 2, eng.searchCalls, "cache must be purged after add_batch, forcing a miss")
}

func TestService_GroupingInvariants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.AddBatch(ctx, []*domain.Record{
		{ID: "a", JCN: "2", ContentTokens: "検索"},
		{ID: "b", JCN: "1", ContentTokens: "検索"},
		{ID: "c", JCN: "1", ContentTokens: "検索"},
	}))

	res, err := svc.Search(ctx, "検索", 10, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFound)
	assert.Equal(t, 2, res.TotalCompanies)

	totalURLs := 0
	for _, g := range res.GroupedResults {
		totalURLs += len(g.URLs)
	}
	assert.Equal(t, res.TotalFound, totalURLs)
}
