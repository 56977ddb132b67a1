// Package journal implements component F: the search journal and
// popularity rankings. Every search is appended to a per-user, append-only
// JSONL file before the in-memory ranking counters are updated, so a crash
// between the two never leaves a counter ahead of durable storage.
//
// Grounded on the original implementation's search_logger.py (per-user log
// files, startup reconstruction of in-memory rankings from existing logs,
// reverse-chunk read of a user's file for recent history).
package journal

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"search-indexer/port"
	"search-indexer/queryproc"
)

// Entry is one logged search, in the bit-exact shape persisted to a user's
// JSONL file: timestamp, query, results_count, search_time, and prefecture/
// cust_status/city when non-empty. There is no search_type field — the
// canonical enterprise schema dropped it along with the legacy
// title/content fields it was paired with.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	SearchTimeMS float64   `json:"search_time"`
	Prefecture   string    `json:"prefecture,omitempty"`
	CustStatus   string    `json:"cust_status,omitempty"`
	City         string    `json:"city,omitempty"`
}

// Journal owns one log directory and the four in-memory tables reconstructed
// from it at startup: query_counts, keyword_counts, user_search_counts, and
// user_history.
type Journal struct {
	dir  string
	proc *queryproc.Processor

	mu               sync.Mutex
	counts           map[string]int      // query_counts: normalized query -> count
	keywordCounts    map[string]int      // keyword_counts: token -> count
	userSearchCounts map[string]int      // user_search_counts: username -> count
	userHistory      map[string][]Entry  // user_history: username -> entries, most recent first

	logger *slog.Logger
}

// Open ensures dir exists and reconstructs the in-memory tables by replaying
// every *.jsonl file already in it. A malformed line is skipped, not fatal.
func Open(dir string, proc *queryproc.Processor, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &port.JournalError{Op: "Open", Err: err.Error()}
	}

	j := &Journal{
		dir:              dir,
		proc:             proc,
		counts:           map[string]int{},
		keywordCounts:    map[string]int{},
		userSearchCounts: map[string]int{},
		userHistory:      map[string][]Entry{},
		logger:           logger,
	}
	if err := j.loadRankings(); err != nil {
		return nil, err
	}
	return j, nil
}

// loadRankings replays every user file in append order, rebuilding all four
// in-memory tables the same way LogSearch updates them incrementally.
func (j *Journal) loadRankings() error {
	matches, err := filepath.Glob(filepath.Join(j.dir, "*.jsonl"))
	if err != nil {
		return &port.JournalError{Op: "loadRankings", Err: err.Error()}
	}

	loaded := 0
	for _, path := range matches {
		username := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		entries, err := readEntries(path)
		if err != nil {
			j.logger.Error("journal: failed opening log file during startup reconstruction", "path", path, "err", err)
			continue
		}
		for _, e := range entries {
			j.recordRanking(username, e)
			loaded++
		}
	}
	j.logger.Info("journal: rankings reconstructed from existing logs", "entries_loaded", loaded, "unique_queries", len(j.counts))
	return nil
}

// recordRanking updates every in-memory table for one already-durable entry.
// Callers must hold j.mu, except loadRankings, which runs before Open
// publishes the Journal to any other goroutine.
func (j *Journal) recordRanking(username string, e Entry) {
	if key := rankingKey(e.Query); key != "" {
		j.counts[key]++
		for _, kw := range j.keywords(e.Query) {
			j.keywordCounts[kw]++
		}
	}
	j.userSearchCounts[username]++
	j.userHistory[username] = append([]Entry{e}, j.userHistory[username]...)
}

// keywords re-tokenizes a normalized query through the tokenizer (4.A) to
// populate keyword_counts; it returns nil when no tokenizer was configured
// (tests that only exercise query_counts/user_history pass a nil processor).
func (j *Journal) keywords(normalized string) []string {
	if j.proc == nil {
		return nil
	}
	return j.proc.Keywords(normalized)
}

// rankingKey normalizes a query into a ranking bucket: trimmed and
// lowercased, matching the original implementation's normalize-then-lower
// key.
func rankingKey(query string) string {
	return strings.ToLower(strings.TrimSpace(queryproc.Normalize(query)))
}

// sanitizeUsername strips a username down to the filename-safe character
// set the original implementation allows: alphanumerics, underscore,
// hyphen, and dot.
func sanitizeUsername(username string) string {
	var b strings.Builder
	for _, r := range username {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (j *Journal) userLogPath(username string) string {
	return filepath.Join(j.dir, sanitizeUsername(username)+".jsonl")
}

// LogSearch appends one entry to the user's log file, then updates the
// in-memory ranking counters. The append happens first and under no lock
// contention with the in-memory update other than the single mutex that
// also guards counts, so visibility in rankings never precedes durability.
func (j *Journal) LogSearch(username, query string, resultsCount int, searchTimeMS float64, prefecture, custStatus, city string) error {
	normalized := queryproc.Normalize(query)
	entry := Entry{
		Timestamp:    time.Now(),
		Query:        normalized,
		ResultsCount: resultsCount,
		SearchTimeMS: roundMS(searchTimeMS),
		Prefecture:   prefecture,
		CustStatus:   custStatus,
		City:         city,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return &port.JournalError{Op: "LogSearch", Err: err.Error()}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.userLogPath(username), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &port.JournalError{Op: "LogSearch", Err: err.Error()}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return &port.JournalError{Op: "LogSearch", Err: err.Error()}
	}
	if err := f.Sync(); err != nil {
		return &port.JournalError{Op: "LogSearch", Err: err.Error()}
	}

	j.recordRanking(username, entry)
	return nil
}

func roundMS(ms float64) float64 {
	return float64(int64(ms*1000)) / 1000
}

// GetUserSearches returns up to limit of the user's most recent searches,
// most recent first, read entirely from the in-memory user_history table
// (4.F's readers never touch disk).
func (j *Journal) GetUserSearches(username string, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	history := j.userHistory[username]
	if len(history) > limit {
		history = history[:limit]
	}
	out := make([]Entry, len(history))
	copy(out, history)
	return out, nil
}

// UserEntry is a journal Entry tagged with the username that issued it.
type UserEntry struct {
	Entry
	Username string `json:"username"`
}

// GetAllSearches returns up to limit of the most recent searches across
// every user, most recent first, each tagged with its username.
func (j *Journal) GetAllSearches(limit int) ([]UserEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var all []UserEntry
	for username, entries := range j.userHistory {
		for _, e := range entries {
			all = append(all, UserEntry{Entry: e, Username: username})
		}
	}
	sort.Slice(all, func(i, k int) bool { return all[i].Timestamp.After(all[k].Timestamp) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// QueryCount is one entry of the popular-queries ranking.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// PopularQueries returns the top-`limit` queries by real-time in-memory
// count, highest first.
func (j *Journal) PopularQueries(limit int) []QueryCount {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]QueryCount, 0, len(j.counts))
	for q, c := range j.counts {
		out = append(out, QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Query < out[k].Query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// KeywordCount is one entry of the popular-keywords ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// PopularKeywords returns the top-`limit` keywords by in-memory count,
// highest first. Keywords are produced by re-tokenizing every normalized
// query through the tokenizer (4.A), not by splitting on whitespace.
func (j *Journal) PopularKeywords(limit int) []KeywordCount {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]KeywordCount, 0, len(j.keywordCounts))
	for kw, c := range j.keywordCounts {
		out = append(out, KeywordCount{Keyword: kw, Count: c})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Keyword < out[k].Keyword
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UserRankingEntry is one entry of the user_rankings reader.
type UserRankingEntry struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// UserRankings returns the top-`limit` users by total search count, highest
// first, reading user_search_counts.
func (j *Journal) UserRankings(limit int) []UserRankingEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]UserRankingEntry, 0, len(j.userSearchCounts))
	for username, c := range j.userSearchCounts {
		out = append(out, UserRankingEntry{Username: username, Count: c})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Username < out[k].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankingsStats summarizes the in-memory ranking counters.
type RankingsStats struct {
	TotalQueries  int
	UniqueQueries int
	TopQuery      string
	TopQueryCount int
}

func (j *Journal) RankingsStats() RankingsStats {
	j.mu.Lock()
	defer j.mu.Unlock()

	stats := RankingsStats{UniqueQueries: len(j.counts)}
	for q, c := range j.counts {
		stats.TotalQueries += c
		if c > stats.TopQueryCount {
			stats.TopQueryCount = c
			stats.TopQuery = q
		}
	}
	return stats
}

// UserStats reports the total number of searches, distinct users, and
// distinct queries across the whole log directory.
type UserStats struct {
	TotalSearches int
	UniqueUsers   int
	UniqueQueries int
}

func (j *Journal) UserStats() (UserStats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := 0
	for _, c := range j.userSearchCounts {
		total += c
	}
	return UserStats{
		TotalSearches: total,
		UniqueUsers:   len(j.userHistory),
		UniqueQueries: len(j.counts),
	}, nil
}
