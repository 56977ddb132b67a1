// Package db holds the pgx-backed SQL for the Ingest Gateway (component K):
// cursor-paginated reads of the enterprise_pages table.
//
// Grounded on the pre-processor sibling service's driver/db_articles.go
// GetArticlesForSummarization (keyset pagination on (created_at, id),
// DESC ordering, cursor returned alongside the page), generalized from the
// article schema to the enterprise record schema.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"search-indexer/domain"
)

// GetRecordsPage reads up to limit enterprise_pages rows older than the
// given cursor, ordered by (created_at, id) descending, returning the page
// plus the cursor values of its last row (nil/"" if the page is empty).
func GetRecordsPage(ctx context.Context, pool *pgxpool.Pool, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Record, *time.Time, string, error) {
	if pool == nil {
		return nil, nil, "", fmt.Errorf("database connection is nil")
	}

	var rows pgx.Rows
	var err error

	const baseColumns = `
		id, url, url_name, content, jcn, cust_status2, company_name_kj,
		company_address_all, prefecture, city, large_class_name,
		middle_class_name, curr_setlmnt_taking_amt, employee_all_num,
		district_finalized_cd, branch_name_cd, main_domain_url, created_at
	`

	if lastCreatedAt == nil || lastCreatedAt.IsZero() {
		rows, err = pool.Query(ctx, `
			SELECT `+baseColumns+`
			FROM enterprise_pages
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = pool.Query(ctx, `
			SELECT `+baseColumns+`
			FROM enterprise_pages
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`, *lastCreatedAt, lastID, limit)
	}
	if err != nil {
		return nil, nil, "", err
	}
	defer rows.Close()

	var records []*domain.Record
	var finalCreatedAt *time.Time
	var finalID string

	for rows.Next() {
		var rec domain.Record
		var createdAt time.Time

		if err := rows.Scan(
			&rec.ID, &rec.URL, &rec.URLName, &rec.Content, &rec.JCN, &rec.CustStatus2,
			&rec.CompanyNameKJ, &rec.CompanyAddress, &rec.Prefecture, &rec.City,
			&rec.LargeClassName, &rec.MiddleClassName, &rec.CurrSetlmntTakingAmt,
			&rec.EmployeeAllNum, &rec.DistrictFinalizedCD, &rec.BranchNameCD,
			&rec.MainDomainURL, &createdAt,
		); err != nil {
			return nil, nil, "", err
		}

		records = append(records, &rec)
		finalCreatedAt = &createdAt
		finalID = rec.ID
	}

	return records, finalCreatedAt, finalID, rows.Err()
}
