// Package domain holds the value types shared by every layer of the search
// indexer: the enterprise document schema, search hits, and the grouped
// company response the search service assembles.
package domain

import "strings"

// Record is one crawled URL annotated with its owning company's metadata.
// It is the unit of ingest (domain.Record) and, once tokenized, the unit of
// storage in the index engine.
type Record struct {
	ID       string
	URL      string
	URLName  string
	Content  string // pre-HTML-stripped text; usecase.IndexRecordsUsecase tokenizes it into ContentTokens when that is empty; the index engine indexes ContentTokens only
	ContentTokens string // whitespace-joined retained surface forms

	JCN            string
	CustStatus2    string
	CompanyNameKJ  string
	CompanyAddress string
	Prefecture     string
	City           string
	LargeClassName  string
	MiddleClassName string

	CurrSetlmntTakingAmt int64
	EmployeeAllNum       int64

	DistrictFinalizedCD string
	BranchNameCD        string
	MainDomainURL       string
}

// Normalize trims and lowercases the shard key, matching the data-model
// invariant that prefecture is always stored lowercased. Other fields are
// left unchanged.
func (r *Record) Normalize() {
	r.Prefecture = strings.ToLower(strings.TrimSpace(r.Prefecture))
}

// Validate enforces the minimal required-field set: id and jcn must both be
// non-blank. Content and ContentTokens are not checked.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &RecordError{Op: "Validate", Err: "id is required"}
	}
	if strings.TrimSpace(r.JCN) == "" {
		return &RecordError{Op: "Validate", Err: "jcn is required"}
	}
	return nil
}

// RecordError reports a malformed ingest record.
type RecordError struct {
	Op  string
	Err string
}

func (e *RecordError) Error() string {
	return "domain: " + e.Op + ": " + e.Err
}
