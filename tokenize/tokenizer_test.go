package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultFactoryPicksSearchBackend(t *testing.T) {
	tok, err := New("", nil)
	require.NoError(t, err)
	assert.Equal(t, BackendSearch, tok.Name())
}

func TestNew_UnknownBackendErrors(t *testing.T) {
	_, err := New("does-not-exist", nil)
	require.Error(t, err)
}

func TestTokenizeAndFilter_AllDigitsDroppedOnIndexing(t *testing.T) {
	tok, err := New(BackendNormal, nil)
	require.NoError(t, err)

	surfaces := tok.TokenizeAndFilter("12345 機械学習", DefaultMinLength)
	for _, s := range surfaces {
		assert.False(t, isAllDigits(s), "pure-digit surface %q should have been filtered", s)
	}
}

func TestTokenizeAndFilter_RespectsMinLength(t *testing.T) {
	tok, err := New(BackendNormal, nil)
	require.NoError(t, err)

	surfaces := tok.TokenizeAndFilter("の を は 機械学習", 2)
	for _, s := range surfaces {
		assert.GreaterOrEqual(t, len([]rune(s)), 2)
	}
}

func TestTokenizeAndFilter_StopwordsExcluded(t *testing.T) {
	tok, err := New(BackendNormal, nil)
	require.NoError(t, err)

	surfaces := tok.TokenizeAndFilter("これ は プラットフォーム です", DefaultMinLength)
	for _, s := range surfaces {
		assert.False(t, stopwords[s], "stopword %q should have been filtered", s)
	}
}

func TestTokenizeAndFilter_BackendEquivalenceAfterFiltering(t *testing.T) {
	search, err := New(BackendSearch, nil)
	require.NoError(t, err)
	normal, err := New(BackendNormal, nil)
	require.NoError(t, err)

	text := "機械学習のプラットフォームを開発する"

	a := toSet(search.TokenizeAndFilter(text, DefaultMinLength))
	b := toSet(normal.TokenizeAndFilter(text, DefaultMinLength))

	// Only the filtered *sets* must agree; pre-filter segmentation
	// granularity may differ between backends.
	assert.Equal(t, b, a, "filtered surface sets differ between backends")
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
}

func toSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}

func TestFilterTokens_RetainsOnlyAllowedPOS(t *testing.T) {
	tokens := []Token{
		{Surface: "機械学習", POS: "名詞"},
		{Surface: "を", POS: "助詞"},
		{Surface: "開発", POS: "名詞"},
		{Surface: "する", POS: "動詞"},
	}
	out := filterTokens(tokens, 2, true)
	assert.Contains(t, out, "機械学習")
	assert.Contains(t, out, "開発")
	assert.NotContains(t, out, "を")
	assert.NotContains(t, out, "する") // stopword, despite being a retained POS
}

func TestIsAllDigits(t *testing.T) {
	assert.True(t, isAllDigits("12345"))
	assert.True(t, isAllDigits("０１２"))
	assert.False(t, isAllDigits("12a"))
	assert.False(t, isAllDigits(""))
}
