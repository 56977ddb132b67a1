package queryproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-indexer/tokenize"
)

func TestNormalize_Idempotent(t *testing.T) {
	cases := []string{
		"  AI　機械学習  ",
		"already normal",
		"　　leading full-width　　",
	}
	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize should be idempotent for %q", c)
	}
}

func TestNormalize_FoldsFullWidthSpaceAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "AI 機械学習", Normalize("AI　機械学習"))
	assert.Equal(t, "a b", Normalize("a    b"))
}

func TestExtractQuotedPhrases(t *testing.T) {
	phrases, residue := ExtractQuotedPhrases(`"データ分析" 基盤 "機械学習"`)
	assert.Equal(t, []string{"データ分析", "機械学習"}, phrases)
	assert.Equal(t, " 基盤 ", residue)
}

func TestExtractQuotedPhrases_NoQuotesReturnsWholeAsResidue(t *testing.T) {
	phrases, residue := ExtractQuotedPhrases("no quotes here")
	assert.Nil(t, phrases)
	assert.Equal(t, "no quotes here", residue)
}

func TestCompile_PhrasesSurviveVerbatimBeforeTokens(t *testing.T) {
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	p := New(tok)

	compiled := p.Compile(`"データ分析" 開発`)
	assert.Contains(t, compiled, `"データ分析"`)
	assert.True(t, strings.HasPrefix(compiled, `"データ分析"`), "phrase must precede tokens in %q", compiled)
}

func TestCompile_EmptyResidueAndNoPhrasesYieldsEmptyString(t *testing.T) {
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	p := New(tok)

	compiled := p.Compile("   の を は   ")
	assert.Empty(t, compiled)
}

func TestCompile_FullWidthSpaceFoldedBeforeTokenizing(t *testing.T) {
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	p := New(tok)

	withFullWidth := p.Compile("AI　機械学習")
	withASCII := p.Compile("AI 機械学習")
	assert.Equal(t, withASCII, withFullWidth)
}

func TestKeywords_FiltersStopwordsWithNoPhraseExtraction(t *testing.T) {
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	p := New(tok)

	kws := p.Keywords("機械学習 の 開発")
	assert.NotEmpty(t, kws)
	assert.NotContains(t, kws, "の")
}

func TestKeywords_NilTokenizerReturnsNil(t *testing.T) {
	p := New(nil)
	assert.Nil(t, p.Keywords("機械学習"))
}
