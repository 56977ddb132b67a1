package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-indexer/queryproc"
	"search-indexer/tokenize"
)

func TestJournal_LogSearchAppendsAndUpdatesRankings(t *testing.T) {
	j, err := Open(t.TempDir(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, j.LogSearch("alice", "機械学習", 3, 12.5, "tokyo", "", ""))
	require.NoError(t, j.LogSearch("alice", "機械学習", 3, 8.0, "tokyo", "", ""))
	require.NoError(t, j.LogSearch("bob", "データ分析", 1, 5.0, "", "", ""))

	top := j.PopularQueries(10)
	require.NotEmpty(t, top)
	assert.Equal(t, "機械学習", top[0].Query)
	assert.Equal(t, 2, top[0].Count)
}

func TestJournal_GetUserSearchesMostRecentFirst(t *testing.T) {
	j, err := Open(t.TempDir(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, j.LogSearch("alice", "first", 1, 1, "", "", ""))
	require.NoError(t, j.LogSearch("alice", "second", 1, 1, "", "", ""))

	entries, err := j.GetUserSearches("alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Query)
	assert.Equal(t, "first", entries[1].Query)
}

func TestJournal_GetUserSearchesUnknownUserReturnsEmpty(t *testing.T) {
	j, err := Open(t.TempDir(), nil, nil)
	require.NoError(t, err)

	entries, err := j.GetUserSearches("nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_SanitizesUsernameForFilename(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, nil, nil)
	require.NoError(t, err)

	require.NoError(t, j.LogSearch("../../etc/passwd", "q", 0, 0, "", "", ""))

	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotContains(t, filepath.Base(matches[0]), "..")
	assert.NotContains(t, filepath.Base(matches[0]), "/")
}

func TestJournal_ReconstructsRankingsOnReopen(t *testing.T) {
	dir := t.TempDir()
	j1, err := Open(dir, nil, nil)
	require.NoError(t, err)
	require.NoError(t, j1.LogSearch("alice", "検索", 1, 1, "", "", ""))
	require.NoError(t, j1.LogSearch("alice", "検索", 1, 1, "", "", ""))

	j2, err := Open(dir, nil, nil)
	require.NoError(t, err)

	stats := j2.RankingsStats()
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Equal(t, 1, stats.UniqueQueries)
}

func TestJournal_PopularKeywordsCountsReTokenizedQueries(t *testing.T) {
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	proc := queryproc.New(tok)

	j, err := Open(t.TempDir(), proc, nil)
	require.NoError(t, err)

	require.NoError(t, j.LogSearch("alice", "機械学習 開発", 1, 1, "", "", ""))
	require.NoError(t, j.LogSearch("bob", "機械学習", 1, 1, "", "", ""))

	keywords := j.PopularKeywords(10)
	require.NotEmpty(t, keywords)
	assert.Equal(t, "機械学習", keywords[0].Keyword)
	assert.Equal(t, 2, keywords[0].Count)
}

func TestJournal_UserRankingsOrdersBySearchCount(t *testing.T) {
	j, err := Open(t.TempDir(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, j.LogSearch("alice", "q1", 1, 1, "", "", ""))
	require.NoError(t, j.LogSearch("alice", "q2", 1, 1, "", "", ""))
	require.NoError(t, j.LogSearch("bob", "q3", 1, 1, "", "", ""))

	rankings := j.UserRankings(10)
	require.Len(t, rankings, 2)
	assert.Equal(t, "alice", rankings[0].Username)
	assert.Equal(t, 2, rankings[0].Count)
}

func TestJournal_ReconstructsKeywordAndUserTablesOnReopen(t *testing.T) {
	dir := t.TempDir()
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	proc := queryproc.New(tok)

	j1, err := Open(dir, proc, nil)
	require.NoError(t, err)
	require.NoError(t, j1.LogSearch("alice", "機械学習 開発", 1, 1, "", "", ""))

	j2, err := Open(dir, proc, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, j2.PopularKeywords(10))
	rankings := j2.UserRankings(10)
	require.Len(t, rankings, 1)
	assert.Equal(t, "alice", rankings[0].Username)

	history, err := j2.GetUserSearches("alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "機械学習 開発", history[0].Query)
}

func TestJournal_GetAllSearchesTagsUsername(t *testing.T) {
	j, err := Open(t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, j.LogSearch("alice", "q1", 0, 0, "", "", ""))
	require.NoError(t, j.LogSearch("bob", "q2", 0, 0, "", "", ""))

	all, err := j.GetAllSearches(10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	users := map[string]bool{}
	for _, e := range all {
		users[e.Username] = true
	}
	assert.Equal(t, map[string]bool{"alice": true, "bob": true}, users)
}
