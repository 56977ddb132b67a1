package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-indexer/domain"
	"search-indexer/index"
	"search-indexer/queryproc"
	"search-indexer/searchservice"
	"search-indexer/tokenize"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	proc := queryproc.New(tok)

	services := map[string]*searchservice.Service{}
	configs := map[string]PrefectureConfig{}
	for pref, name := range map[string]string{"tokyo": "東京都", "osaka": "大阪府"} {
		eng, err := index.Open(t.TempDir(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = eng.Close() })
		svc, err := searchservice.New(eng, proc)
		require.NoError(t, err)
		services[pref] = svc
		configs[pref] = PrefectureConfig{Name: name}
	}
	return New(services, configs)
}

func TestRouter_SearchRequiresPrefecture(t *testing.T) {
	r := newTestRouter(t)
	_, err := r.Search(context.Background(), "query", "", 10, "", "")
	assert.Error(t, err)
}

func TestRouter_SearchRejectsUnknownPrefecture(t *testing.T) {
	r := newTestRouter(t)
	_, err := r.Search(context.Background(), "query", "nagano", 10, "", "")
	assert.Error(t, err)
}

func TestRouter_SearchDispatchesToConfiguredShardOnly(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, r.AddDocument(ctx, "tokyo", &domain.Record{ID: "a", JCN: "1", ContentTokens: "検索"}))
	require.NoError(t, r.AddDocument(ctx, "osaka", &domain.Record{ID: "b", JCN: "2", ContentTokens: "検索"}))

	res, err := r.Search(ctx, "検索", "tokyo", 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, "tokyo", res.Prefecture)
	assert.Equal(t, "東京都", res.PrefectureName)
}

func TestRouter_AllStatsRollsUpTotalDocuments(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, r.AddDocument(ctx, "tokyo", &domain.Record{ID: "a", JCN: "1", ContentTokens: "検索"}))
	require.NoError(t, r.AddDocument(ctx, "osaka", &domain.Record{ID: "b", JCN: "2", ContentTokens: "検索"}))

	all, err := r.AllStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), all.TotalDocuments)
	assert.Len(t, all.Prefectures, 2)
	assert.Len(t, all.AvailablePrefectures, 2)
}

func TestRouter_ClearIndexOnlyAffectsNamedShard(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, r.AddDocument(ctx, "tokyo", &domain.Record{ID: "a", JCN: "1", ContentTokens: "検索"}))
	require.NoError(t, r.AddDocument(ctx, "osaka", &domain.Record{ID: "b", JCN: "2", ContentTokens: "検索"}))

	require.NoError(t, r.ClearIndex(ctx, "tokyo"))

	tokyoStats, err := r.StatsFor(ctx, "tokyo")
	require.NoError(t, err)
	assert.Zero(t, tokyoStats.TotalDocuments)

	osakaStats, err := r.StatsFor(ctx, "osaka")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), osakaStats.TotalDocuments)
}
