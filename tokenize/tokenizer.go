package tokenize

import (
	"log/slog"

	kagometokenizer "github.com/ikawaha/kagome/v2/tokenizer"
)

// DefaultMinLength is the minimum surface length retained by the filter
// pipeline (the indexing default from the spec).
const DefaultMinLength = 2

// Tokenizer is the component A capability: morphological segmentation plus
// the shared filter pipeline. It never fails the caller.
type Tokenizer struct {
	backend backend
	name    string
	logger  *slog.Logger
}

// Name backends are selected by; "" to the factory means "pick the faster
// variant, falling back to the pure variant on construction failure".
const (
	BackendSearch = "kagome-search" // faster, more aggressive compound-splitting variant
	BackendNormal = "kagome-normal" // conservative, longest-match variant
)

// New constructs a Tokenizer for the named backend. An empty name selects
// BackendSearch, falling back to BackendNormal if construction fails.
func New(name string, logger *slog.Logger) (*Tokenizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		if t, err := newNamed(BackendSearch, logger); err == nil {
			return t, nil
		}
		return newNamed(BackendNormal, logger)
	}
	return newNamed(name, logger)
}

func newNamed(name string, logger *slog.Logger) (*Tokenizer, error) {
	var mode kagometokenizer.TokenizeMode
	switch name {
	case BackendSearch:
		mode = kagometokenizer.Search
	case BackendNormal:
		mode = kagometokenizer.Normal
	default:
		return nil, &TokenizerError{Op: "New", Err: "unknown backend: " + name}
	}
	b, err := newKagomeBackend(mode)
	if err != nil {
		return nil, &TokenizerError{Op: "New", Err: err.Error()}
	}
	return &Tokenizer{backend: b, name: name, logger: logger}, nil
}

// Name reports which backend variant this tokenizer was constructed with.
func (t *Tokenizer) Name() string { return t.name }

// Tokenize returns the raw, unfiltered morphological analysis of text. On
// internal error it logs and returns an empty sequence; it never panics the
// caller.
func (t *Tokenizer) Tokenize(text string) []Token {
	if t == nil || t.backend == nil {
		return nil
	}
	toks := t.backend.tokenize(text)
	if toks == nil {
		t.logger.Warn("tokenizer: internal analysis failure, returning empty sequence", "backend", t.name)
		return []Token{}
	}
	return toks
}

// TokenizeAndFilter tokenizes text and applies the POS/length/stopword/digit
// filter pipeline, returning the retained surface forms in order. Callers at
// query time (queryproc, journal) share this same pipeline, so the digit
// filter also drops pure-digit query tokens, not just indexing-time ones.
func (t *Tokenizer) TokenizeAndFilter(text string, minLength int) []string {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return filterTokens(t.Tokenize(text), minLength, true)
}

// TokenizerError reports a tokenizer construction or internal failure.
type TokenizerError struct {
	Op  string
	Err string
}

func (e *TokenizerError) Error() string {
	return "tokenizer: " + e.Op + ": " + e.Err
}
