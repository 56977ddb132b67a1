package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"search-indexer/journal"
	"search-indexer/port"
	"search-indexer/router"
	"search-indexer/utils"
)

const (
	maxQueryLength = 1000
	maxSearchLimit = 100
)

// SearchRecordsUsecase sanitizes and validates an incoming query, dispatches
// it to the router, and journals the outcome under the requesting user.
//
// Grounded on the teacher's own search_articles_with_filters_test.go
// validateInput contract (empty/too-long query, non-positive/too-large
// limit all rejected before the search engine is ever called), generalized
// from a flat tag-filter list to the router's prefecture/cust_status
// filters and with journal logging folded in, since every search the spec
// describes is journaled by the username that issued it.
type SearchRecordsUsecase struct {
	router    *router.Router
	sanitizer *utils.QuerySanitizer
	journal   *journal.Journal
}

// NewSearchRecordsUsecase binds the usecase to its dependencies. journal may
// be nil to skip logging (e.g. in tests or an anonymous caller path).
func NewSearchRecordsUsecase(r *router.Router, sanitizer *utils.QuerySanitizer, j *journal.Journal) *SearchRecordsUsecase {
	return &SearchRecordsUsecase{router: r, sanitizer: sanitizer, journal: j}
}

// Execute validates query and limit, sanitizes the query, searches the named
// prefecture shard, and—if a username is given—appends a journal entry for
// the outcome.
func (u *SearchRecordsUsecase) Execute(ctx context.Context, username, query, prefecture string, limit int, custStatus, sortKey string) (router.Result, error) {
	if err := u.validateInput(query, limit); err != nil {
		return router.Result{}, err
	}

	clean := query
	if u.sanitizer != nil {
		var err error
		clean, err = u.sanitizer.SanitizeQuery(ctx, query)
		if err != nil {
			return router.Result{}, &port.QueryError{Op: "SanitizeQuery", Err: err.Error()}
		}
	}

	start := time.Now()
	result, err := u.router.Search(ctx, clean, prefecture, limit, custStatus, sortKey)
	if err != nil {
		return router.Result{}, err
	}

	if u.journal != nil && username != "" {
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		_ = u.journal.LogSearch(username, clean, result.TotalFound, elapsed, prefecture, custStatus, "")
	}

	return result, nil
}

func (u *SearchRecordsUsecase) validateInput(query string, limit int) error {
	if strings.TrimSpace(query) == "" {
		return &port.QueryError{Op: "validateInput", Err: "query cannot be empty"}
	}
	if n := utf8.RuneCountInString(query); n > maxQueryLength {
		return &port.QueryError{Op: "validateInput", Err: fmt.Sprintf("query too long: maximum %d characters, got %d", maxQueryLength, n)}
	}
	if limit <= 0 {
		return &port.QueryError{Op: "validateInput", Err: fmt.Sprintf("limit must be positive: got %d", limit)}
	}
	if limit > maxSearchLimit {
		return &port.QueryError{Op: "validateInput", Err: fmt.Sprintf("limit too large: maximum %d, got %d", maxSearchLimit, limit)}
	}
	return nil
}
