package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"search-indexer/domain"
	"search-indexer/index"
	"search-indexer/queryproc"
	"search-indexer/searchservice"
	"search-indexer/tokenize"
)

func newAdapterTestRouter(t *testing.T) *Router {
	t.Helper()
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	proc := queryproc.New(tok)

	services := map[string]*searchservice.Service{}
	configs := map[string]PrefectureConfig{}
	for _, pref := range []string{"tokyo", "osaka"} {
		eng, err := index.Open(t.TempDir(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = eng.Close() })
		svc, err := searchservice.New(eng, proc)
		require.NoError(t, err)
		services[pref] = svc
		configs[pref] = PrefectureConfig{Name: pref}
	}
	return New(services, configs)
}

func TestRoutingIndexEngine_AddBatchSplitsByPrefecture(t *testing.T) {
	r := newAdapterTestRouter(t)
	engine := NewRoutingIndexEngine(r)
	ctx := context.Background()

	recs := []*domain.Record{
		{ID: "t1", JCN: "1", Prefecture: "tokyo", ContentTokens: "検索"},
		{ID: "o1", JCN: "2", Prefecture: "osaka", ContentTokens: "検索"},
		{ID: "t2", JCN: "3", Prefecture: "tokyo", ContentTokens: "検索"},
	}
	require.NoError(t, engine.AddBatch(ctx, recs))

	tokyoStats, err := r.StatsFor(ctx, "tokyo")
	require.NoError(t, err)
	require.EqualValues(t, 2, tokyoStats.TotalDocuments)

	osakaStats, err := r.StatsFor(ctx, "osaka")
	require.NoError(t, err)
	require.EqualValues(t, 1, osakaStats.TotalDocuments)
}

func TestRoutingIndexEngine_DocCountSumsAllShards(t *testing.T) {
	r := newAdapterTestRouter(t)
	engine := NewRoutingIndexEngine(r)
	ctx := context.Background()

	require.NoError(t, engine.Add(ctx, &domain.Record{ID: "t1", JCN: "1", Prefecture: "tokyo", ContentTokens: "a"}))
	require.NoError(t, engine.Add(ctx, &domain.Record{ID: "o1", JCN: "2", Prefecture: "osaka", ContentTokens: "b"}))

	count, err := engine.DocCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestRoutingIndexEngine_ClearErasesEveryShard(t *testing.T) {
	r := newAdapterTestRouter(t)
	engine := NewRoutingIndexEngine(r)
	ctx := context.Background()

	require.NoError(t, engine.Add(ctx, &domain.Record{ID: "t1", JCN: "1", Prefecture: "tokyo", ContentTokens: "a"}))
	require.NoError(t, engine.Clear(ctx))

	count, err := engine.DocCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
