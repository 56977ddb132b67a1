// Package exportcache implements component G: content-addressed CSV
// materialization over search results. The cache key is the MD5 of
// "query:prefecture:cust_status"; presence of {root}/{key}.csv serves as the
// cached result. A search error is persisted into the file as a one-line
// error record so retries do not loop — an operator must delete the file to
// retry.
//
// Grounded on spec §4.G and the §6 CSV column order; no teacher or pack
// repo materializes CSV, so the encoding/csv standard package is used
// directly (see DESIGN.md).
package exportcache

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"search-indexer/domain"
	"search-indexer/port"
	"search-indexer/router"
)

const (
	utf8BOM            = "﻿"
	errorRecordPrefix  = "ERROR: "
	contentTruncateLen = 500
	exportSearchLimit  = 10000
)

var csvHeader = []string{
	"jcn", "CUST_STATUS2", "company_name_kj", "company_address_all",
	"LARGE_CLASS_NAME", "MIDDLE_CLASS_NAME", "CURR_SETLMNT_TAKING_AMT",
	"EMPLOYEE_ALL_NUM", "prefecture", "city", "district_finalized_cd",
	"branch_name_cd", "main_domain_url", "url_name", "url", "content",
	"matched_terms", "id",
}

// Cache materializes and serves CSV exports of search results under root.
type Cache struct {
	root   string
	router *router.Router
}

// Open ensures root exists and binds the cache to the router it exports
// search results from.
func Open(root string, r *router.Router) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &port.ExportCacheError{Op: "Open", Err: err.Error()}
	}
	return &Cache{root: root, router: r}, nil
}

func cacheKey(query, prefecture, custStatus string) string {
	sum := md5.Sum([]byte(query + ":" + prefecture + ":" + custStatus))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.root, key+".csv")
}

// Export returns the path to a CSV file containing the flattened,
// column-ordered results for (query, prefecture, cust_status), writing it
// first if absent. If the file already holds a persisted error record, that
// error is returned again without re-running the search.
func (c *Cache) Export(ctx context.Context, query, prefecture, custStatus string) (string, error) {
	key := cacheKey(query, prefecture, custStatus)
	path := c.path(key)

	if existing, err := readIfErrorRecord(path); err != nil {
		return "", &port.ExportCacheError{Op: "Export", Err: err.Error()}
	} else if existing != "" {
		return "", &port.ExportCacheError{Op: "Export", Err: existing}
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	res, err := c.router.Search(ctx, query, prefecture, exportSearchLimit, custStatus, "jcn")
	if err != nil {
		if writeErr := writeErrorRecord(path, err.Error()); writeErr != nil {
			return "", &port.ExportCacheError{Op: "Export", Err: writeErr.Error()}
		}
		return "", &port.ExportCacheError{Op: "Export", Err: err.Error()}
	}

	if err := writeCSVAtomic(path, res.GroupedResults); err != nil {
		return "", &port.ExportCacheError{Op: "Export", Err: err.Error()}
	}
	return path, nil
}

// readIfErrorRecord reports the persisted error message if path exists and
// its sole content is the one-line error record; it returns "" if the file
// is absent or holds real CSV data.
func readIfErrorRecord(path string) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", scanner.Err()
	}
	line := strings.TrimPrefix(scanner.Text(), utf8BOM)
	if strings.HasPrefix(line, errorRecordPrefix) {
		return strings.TrimPrefix(line, errorRecordPrefix), nil
	}
	return "", nil
}

func writeErrorRecord(path, message string) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		_, err := w.WriteString(utf8BOM + errorRecordPrefix + message + "\n")
		return err
	})
}

func writeCSVAtomic(path string, groups []domain.CompanyGroup) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		if _, err := w.WriteString(utf8BOM); err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, g := range groups {
			for _, u := range g.URLs {
				row := []string{
					g.JCN, g.CustStatus2, g.CompanyNameKJ, g.CompanyAddress,
					g.LargeClassName, g.MiddleClassName,
					strconv.FormatInt(g.CurrSetlmntTakingAmt, 10),
					strconv.FormatInt(g.EmployeeAllNum, 10),
					g.Prefecture, g.City, g.DistrictFinalizedCD,
					g.BranchNameCD, g.MainDomainURL, u.URLName, u.URL,
					truncateRunes(u.ContentPreview, contentTruncateLen),
					strings.Join(u.MatchedTerms, "|"),
					u.ID,
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// writeAtomic writes via a temp file in the same directory, then renames it
// into place, so a reader never observes a partially written cache file.
func writeAtomic(path string, fn func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	if err := fn(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
