// Package queryproc implements component B: normalizing raw user queries,
// extracting quoted phrases, tokenizing the residue, and compiling a
// disjunctive query string for the index engine.
//
// Grounded on the original implementation's query_processor.py
// (normalize_query / extract_quoted_phrases / tokenize_japanese /
// build_whoosh_query), generalized to the tokenizer capability of 4.A.
package queryproc

import (
	"regexp"
	"strings"

	"search-indexer/tokenize"
)

const fullWidthSpace = '　'

var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// Processor compiles raw user queries into the engine's query string.
type Processor struct {
	tok *tokenize.Tokenizer
}

// New constructs a Processor bound to the given tokenizer.
func New(tok *tokenize.Tokenizer) *Processor {
	return &Processor{tok: tok}
}

// Normalize trims, folds the full-width ideographic space to an ASCII space,
// and collapses runs of whitespace to one. It is idempotent.
func Normalize(raw string) string {
	s := strings.Map(func(r rune) rune {
		if r == fullWidthSpace {
			return ' '
		}
		return r
	}, raw)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// ExtractQuotedPhrases returns every maximal double-quoted substring (phrase
// contents, quotes stripped) along with the residue with those substrings
// removed.
func ExtractQuotedPhrases(s string) (phrases []string, residue string) {
	matches := quotedPhrase.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil, s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		phraseStart, phraseEnd := m[2], m[3]
		phrases = append(phrases, s[phraseStart:phraseEnd])
		b.WriteString(s[last:start])
		last = end
	}
	b.WriteString(s[last:])
	return phrases, b.String()
}

// Keywords re-tokenizes an already-normalized query through the tokenizer
// (4.A), with no phrase extraction — used by the journal (4.F) to rebuild
// keyword_counts from a stored, already-normalized query string.
func (p *Processor) Keywords(normalized string) []string {
	if p.tok == nil {
		return nil
	}
	return p.tok.TokenizeAndFilter(normalized, tokenize.DefaultMinLength)
}

// Compile runs the full pipeline and returns the compiled query string: every
// phrase as `"phrase"`, every token as `(token)`, space-joined, phrases
// first. An empty result means "no results" to callers.
func (p *Processor) Compile(raw string) string {
	normalized := Normalize(raw)
	phrases, residue := ExtractQuotedPhrases(normalized)

	var tokens []string
	if p.tok != nil {
		tokens = p.tok.TokenizeAndFilter(residue, tokenize.DefaultMinLength)
	}

	parts := make([]string, 0, len(phrases)+len(tokens))
	for _, ph := range phrases {
		parts = append(parts, `"`+ph+`"`)
	}
	for _, tk := range tokens {
		parts = append(parts, "("+tk+")")
	}
	return strings.Join(parts, " ")
}
