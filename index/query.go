package index

import (
	"context"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"search-indexer/domain"
	"search-indexer/port"
)

var (
	phraseTerm = regexp.MustCompile(`"([^"]+)"`)
	tokenTerm  = regexp.MustCompile(`\(([^)]+)\)`)
)

// Search implements the component C search algorithm: parse the compiled
// query against content_tokens with disjunctive grouping (falling back to an
// explicit OR of whitespace-split terms on parse failure), build the
// prefecture/cust_status filter, sort by jcn or score, execute with term
// locations enabled, and decode the matched terms per hit.
func (e *Engine) Search(ctx context.Context, compiledQuery string, limit int, filters port.SearchFilters, sortKey string) ([]domain.Hit, error) {
	q := parseCompiledQuery(compiledQuery)
	if q == nil {
		return []domain.Hit{}, nil
	}

	full := q
	if filterQuery := buildFilterQuery(filters); filterQuery != nil {
		full = blevequery.NewConjunctionQuery([]blevequery.Query{q, filterQuery})
	}

	req := bleve.NewSearchRequest(full)
	req.Size = limit
	req.Fields = []string{"*"}
	req.IncludeLocations = true

	if sortKey == "jcn" {
		req.SortBy([]string{"jcn"})
	} else {
		req.SortBy([]string{"-_score"})
	}

	result, err := e.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &port.IndexEngineError{Op: "Search", Err: err.Error()}
	}

	hits := make([]domain.Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, hitFromBleve(h))
	}
	return hits, nil
}

// parseCompiledQuery parses the 4.B output format ("phrase" and (token),
// space-joined) into a disjunctive bleve query. An empty compiled string
// yields nil (no results). Unparseable input falls back to an explicit OR
// of whitespace-split terms, per the spec's fallback algorithm.
func parseCompiledQuery(compiled string) blevequery.Query {
	compiled = strings.TrimSpace(compiled)
	if compiled == "" {
		return nil
	}

	var clauses []blevequery.Query
	for _, m := range phraseTerm.FindAllStringSubmatch(compiled, -1) {
		pq := blevequery.NewMatchPhraseQuery(m[1])
		pq.SetField("content_tokens")
		clauses = append(clauses, pq)
	}
	for _, m := range tokenTerm.FindAllStringSubmatch(compiled, -1) {
		tq := blevequery.NewMatchQuery(m[1])
		tq.SetField("content_tokens")
		clauses = append(clauses, tq)
	}

	if len(clauses) > 0 {
		if len(clauses) == 1 {
			return clauses[0]
		}
		return blevequery.NewDisjunctionQuery(clauses)
	}

	// Fallback: the compiled string didn't match the expected syntax.
	// Split on whitespace and OR the raw terms; a single term is used
	// directly.
	terms := strings.Fields(compiled)
	if len(terms) == 0 {
		return nil
	}
	if len(terms) == 1 {
		tq := blevequery.NewMatchQuery(terms[0])
		tq.SetField("content_tokens")
		return tq
	}
	fallback := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms {
		tq := blevequery.NewMatchQuery(t)
		tq.SetField("content_tokens")
		fallback = append(fallback, tq)
	}
	return blevequery.NewDisjunctionQuery(fallback)
}

// buildFilterQuery ANDs prefecture == given (lowercased) and
// cust_status2 == given, where cust_status may be a pipe-separated list
// compiling to an OR of equalities.
func buildFilterQuery(filters port.SearchFilters) blevequery.Query {
	var clauses []blevequery.Query

	if p := strings.TrimSpace(filters.Prefecture); p != "" {
		clauses = append(clauses, termQuery("prefecture", strings.ToLower(p)))
	}

	if cs := strings.TrimSpace(filters.CustStatus); cs != "" {
		values := strings.Split(cs, "|")
		if len(values) == 1 {
			clauses = append(clauses, termQuery("cust_status2", values[0]))
		} else {
			orClauses := make([]blevequery.Query, 0, len(values))
			for _, v := range values {
				orClauses = append(orClauses, termQuery("cust_status2", v))
			}
			clauses = append(clauses, blevequery.NewDisjunctionQuery(orClauses))
		}
	}

	if len(clauses) == 0 {
		return nil
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return blevequery.NewConjunctionQuery(clauses)
}

func termQuery(field, value string) blevequery.Query {
	tq := blevequery.NewTermQuery(value)
	tq.SetField(field)
	return tq
}

// hitFromBleve joins the stored fields of one bleve hit into a domain.Hit
// and decodes the matched (field, term) pairs from Locations into a
// deduplicated surface-form list.
func hitFromBleve(h *search.DocumentMatch) domain.Hit {
	return domain.Hit{
		ID:                   h.ID,
		URL:                  stringField(h, "url"),
		URLName:              stringField(h, "url_name"),
		Content:              stringField(h, "content_tokens"),
		JCN:                  stringField(h, "jcn"),
		CustStatus2:          stringField(h, "cust_status2"),
		CompanyNameKJ:        stringField(h, "company_name_kj"),
		CompanyAddress:       stringField(h, "company_address_all"),
		Prefecture:           stringField(h, "prefecture"),
		City:                 stringField(h, "city"),
		LargeClassName:       stringField(h, "large_class_name"),
		MiddleClassName:      stringField(h, "middle_class_name"),
		CurrSetlmntTakingAmt: int64(numericField(h, "curr_setlmnt_taking_amt")),
		EmployeeAllNum:       int64(numericField(h, "employee_all_num")),
		DistrictFinalizedCD:  stringField(h, "district_finalized_cd"),
		BranchNameCD:         stringField(h, "branch_name_cd"),
		MainDomainURL:        stringField(h, "main_domain_url"),
		Score:                h.Score,
		MatchedTerms:         matchedTerms(h),
	}
}

func stringField(h *search.DocumentMatch, field string) string {
	v, ok := h.Fields[field]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func numericField(h *search.DocumentMatch, field string) float64 {
	v, ok := h.Fields[field]
	if !ok {
		return 0
	}
	n, _ := v.(float64)
	return n
}

// matchedTerms decodes the per-hit (field, term) locations bleve returns
// when IncludeLocations is set, deduplicating within the hit.
func matchedTerms(h *search.DocumentMatch) []string {
	terms, ok := h.Locations["content_tokens"]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
