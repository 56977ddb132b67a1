// Package utils holds small cross-cutting helpers shared by the ingest and
// search request paths. QuerySanitizer implements the defensive input
// handling the spec requires before a raw query reaches the query
// processor: HTML/script/protocol stripping for display-safety, and a
// stricter character-allowlist validator for rejecting queries outright.
//
// Grounded on the pre-processor sibling service's utils/sanitizer.go
// (policy-driven HTML sanitization) generalized from HTML-document
// sanitization to query-string sanitization, since the allowlisted-tag
// policy that package configures does not fit query strings (which should
// never carry markup at all, not merely "safe" markup).
package utils

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	unclosedTagName  = regexp.MustCompile(`(?i)<(\w+)[^>]*>`)
	scriptOrStyle    = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	protocolCall     = regexp.MustCompile(`(?i)\b(javascript|vbscript):\S*\([^)]*\)`)
	dataProtocol     = regexp.MustCompile(`(?i)\bdata:`)
	eventHandlerCall = regexp.MustCompile(`(?i)\bon\w+\s*=\s*\S*\([^)]*\)`)
	anyTag           = regexp.MustCompile(`<[^>]+>`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// SecurityConfig tunes QuerySanitizer's behavior.
type SecurityConfig struct {
	MaxQueryLength      int
	DisallowedPatterns  []string
	AllowedSpecialChars []string
	StripHTMLTags       bool
	NormalizeWhitespace bool
}

// DefaultSecurityConfig is the spec's baseline: 1000-char limit, common
// punctuation allowed, HTML stripped, whitespace normalized.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		MaxQueryLength:      1000,
		DisallowedPatterns:  nil,
		AllowedSpecialChars: []string{"-", "_", ".", "!", "?", "&", "+", "@", "#"},
		StripHTMLTags:       true,
		NormalizeWhitespace: true,
	}
}

// SecurityError reports why a query failed validation.
type SecurityError struct {
	Type    string
	Message string
	Query   string
}

func (e *SecurityError) Error() string {
	return e.Message
}

// QuerySanitizer cleans and validates raw search queries before they reach
// the query processor.
type QuerySanitizer struct {
	config *SecurityConfig
}

// NewQuerySanitizer binds a QuerySanitizer to config.
func NewQuerySanitizer(config *SecurityConfig) *QuerySanitizer {
	return &QuerySanitizer{config: config}
}

// SanitizeQuery removes HTML markup, script/style blocks, and common
// protocol/event-handler injection vectors from query, normalizing
// whitespace first so later removals don't need to re-normalize. A query
// containing an opening tag with no matching close is treated as wholly
// untrustworthy and truncated at that tag.
func (s *QuerySanitizer) SanitizeQuery(ctx context.Context, query string) (string, error) {
	out := query

	if s.config.NormalizeWhitespace {
		out = strings.TrimSpace(whitespaceRun.ReplaceAllString(out, " "))
	}

	for _, pattern := range s.config.DisallowedPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(out) {
			return "", &SecurityError{Type: "disallowed_pattern", Message: "query matches a disallowed pattern", Query: query}
		}
	}

	out = truncateAtUnclosedTag(out)
	out = scriptOrStyle.ReplaceAllString(out, "")
	out = protocolCall.ReplaceAllString(out, "")
	out = dataProtocol.ReplaceAllString(out, "")
	out = eventHandlerCall.ReplaceAllString(out, "")

	if s.config.StripHTMLTags {
		out = anyTag.ReplaceAllString(out, "")
	}

	return out, nil
}

// truncateAtUnclosedTag drops everything from the first opening tag whose
// matching closing tag never appears later in the string.
func truncateAtUnclosedTag(s string) string {
	for _, m := range unclosedTagName.FindAllStringSubmatchIndex(s, -1) {
		tagStart, tagEnd := m[0], m[1]
		name := strings.ToLower(s[m[2]:m[3]])
		rest := strings.ToLower(s[tagEnd:])
		if !strings.Contains(rest, "</"+name+">") {
			return s[:tagStart]
		}
	}
	return s
}

// ValidateQuery rejects a query outright: too long, matching a configured
// disallowed pattern, or containing a character outside letters, digits,
// whitespace, and the configured allowlist.
func (s *QuerySanitizer) ValidateQuery(ctx context.Context, query string) error {
	if utf8.RuneCountInString(query) > s.config.MaxQueryLength {
		return &SecurityError{Type: "query_too_long", Message: "query exceeds maximum length", Query: query}
	}

	for _, pattern := range s.config.DisallowedPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(query) {
			return &SecurityError{Type: "disallowed_pattern", Message: "query matches a disallowed pattern", Query: query}
		}
	}

	for _, r := range query {
		if isAlnum(r) || isSpace(r) {
			continue
		}
		if isAllowedSpecial(r, s.config.AllowedSpecialChars) {
			continue
		}
		return &SecurityError{Type: "dangerous_character", Message: "query contains a disallowed character", Query: query}
	}

	return nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		(r > 0x7f) // permit non-ASCII (e.g. Japanese script) through the dangerous-character gate
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isAllowedSpecial(r rune, allowed []string) bool {
	for _, a := range allowed {
		if len(a) == 1 && rune(a[0]) == r {
			return true
		}
		if string(r) == a {
			return true
		}
	}
	return false
}
