// Package tokenize implements the Japanese morphological tokenizer: a
// factory over two kagome-backed backend variants, and the shared POS /
// stopword / length / digit filter pipeline applied to both.
package tokenize

import "strings"

// Token is one morphological unit: its surface form, its part-of-speech
// class, and its dictionary base form.
type Token struct {
	Surface  string
	POS      string
	BaseForm string
}

// retainedPOS is the set of part-of-speech classes kept by the filter
// pipeline: noun, verb, adjective, adverb.
var retainedPOS = map[string]bool{
	"名詞": true, // noun
	"動詞": true, // verb
	"形容詞": true, // adjective
	"副詞": true, // adverb
}

// stopwords is the fixed closed set of high-frequency Japanese particles and
// copulas discarded by the filter pipeline. Preserved verbatim per the spec.
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(
		"する ある なる いる できる という として の に は を が で て と から まで " +
			"これ それ あれ この その あの ここ そこ あそこ こちら そちら あちら どこ だれ なに なん いつ どう だ である です ます") {
		stopwords[w] = true
	}
}

// isAllDigits reports whether every rune of s is a decimal digit (ASCII or
// full-width), used by the pure-digit token filter applied during indexing.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r >= '０' && r <= '９' { // full-width 0-9
			continue
		}
		return false
	}
	return true
}

// filterTokens applies the POS, length, stopword, and digit filters in the
// order the spec prescribes and returns the retained surface forms in order.
func filterTokens(tokens []Token, minLength int, dropDigits bool) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !retainedPOS[tok.POS] {
			continue
		}
		if len([]rune(tok.Surface)) < minLength {
			continue
		}
		if stopwords[tok.Surface] {
			continue
		}
		if dropDigits && isAllDigits(tok.Surface) {
			continue
		}
		out = append(out, tok.Surface)
	}
	return out
}
