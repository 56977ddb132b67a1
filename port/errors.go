// Package port defines the interfaces the usecase layer depends on (index
// engine, record repository, tokenizer) and the typed errors
// each adapter returns, following the teacher's {Op, Err} convention.
package port

// IndexEngineError reports a failure in the index engine: writer acquisition,
// commit, or open/corruption recovery.
type IndexEngineError struct {
	Op  string
	Err string
}

func (e *IndexEngineError) Error() string {
	return "index engine: " + e.Op + ": " + e.Err
}

// RepositoryError reports a failure reading the upstream record source.
type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return "repository: " + e.Op + ": " + e.Err
}

// QueryError reports an invalid query at the usecase boundary (InputError in
// the error-kind taxonomy).
type QueryError struct {
	Op  string
	Err string
}

func (e *QueryError) Error() string {
	return "query: " + e.Op + ": " + e.Err
}

// JournalError reports a failure appending or reading the search journal.
type JournalError struct {
	Op  string
	Err string
}

func (e *JournalError) Error() string {
	return "journal: " + e.Op + ": " + e.Err
}

// ExportCacheError reports a failure materializing a CSV export.
type ExportCacheError struct {
	Op  string
	Err string
}

func (e *ExportCacheError) Error() string {
	return "export cache: " + e.Op + ": " + e.Err
}

// RouterError reports an unconfigured prefecture or shard failure in the
// multi-index router.
type RouterError struct {
	Op  string
	Err string
}

func (e *RouterError) Error() string {
	return "router: " + e.Op + ": " + e.Err
}
