package domain

import "sort"

// Hit is one matched document returned by the index engine's search
// operation: stored fields plus score and the decoded set of matched terms.
type Hit struct {
	ID      string
	URL     string
	URLName string
	Content string

	JCN             string
	CustStatus2     string
	CompanyNameKJ   string
	CompanyAddress  string
	Prefecture      string
	City            string
	LargeClassName  string
	MiddleClassName string

	CurrSetlmntTakingAmt int64
	EmployeeAllNum       int64

	DistrictFinalizedCD string
	BranchNameCD        string
	MainDomainURL       string

	Score        float64
	MatchedTerms []string
}

// ContentPreview truncates Content to n runes, matching the CSV/search
// response "content_preview" convention (first 500 characters).
func (h *Hit) ContentPreview(n int) string {
	r := []rune(h.Content)
	if len(r) <= n {
		return h.Content
	}
	return string(r[:n])
}

// CompanyGroup is one company's worth of URL hits, grouped by jcn and
// carrying the shared company fields taken from the first hit encountered.
type CompanyGroup struct {
	JCN             string
	CompanyNameKJ   string
	CustStatus2     string
	CompanyAddress  string
	Prefecture      string
	City            string
	LargeClassName  string
	MiddleClassName string

	CurrSetlmntTakingAmt int64
	EmployeeAllNum       int64

	DistrictFinalizedCD string
	BranchNameCD        string
	MainDomainURL       string

	URLs []URLEntry
}

// URLEntry is one url carried within a CompanyGroup.
type URLEntry struct {
	ID              string
	URL             string
	URLName         string
	ContentPreview  string
	Score           float64
	MatchedTerms    []string
}

// GroupByJCN groups hits by jcn in ascending jcn order, preserving the
// original hit order within each group.
func GroupByJCN(hits []Hit) []CompanyGroup {
	index := map[string]int{}
	groups := make([]CompanyGroup, 0)

	for _, h := range hits {
		i, ok := index[h.JCN]
		if !ok {
			g := CompanyGroup{
				JCN:                  h.JCN,
				CompanyNameKJ:        h.CompanyNameKJ,
				CustStatus2:          h.CustStatus2,
				CompanyAddress:       h.CompanyAddress,
				Prefecture:           h.Prefecture,
				City:                 h.City,
				LargeClassName:       h.LargeClassName,
				MiddleClassName:      h.MiddleClassName,
				CurrSetlmntTakingAmt: h.CurrSetlmntTakingAmt,
				EmployeeAllNum:       h.EmployeeAllNum,
				DistrictFinalizedCD:  h.DistrictFinalizedCD,
				BranchNameCD:         h.BranchNameCD,
				MainDomainURL:        h.MainDomainURL,
			}
			groups = append(groups, g)
			i = len(groups) - 1
			index[h.JCN] = i
		}
		groups[i].URLs = append(groups[i].URLs, URLEntry{
			ID:             h.ID,
			URL:            h.URL,
			URLName:        h.URLName,
			ContentPreview: h.ContentPreview(500),
			Score:          h.Score,
			MatchedTerms:   h.MatchedTerms,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].JCN < groups[j].JCN })
	return groups
}
