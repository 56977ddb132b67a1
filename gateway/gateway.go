// Package gateway implements component K, the Ingest Gateway: the sole
// boundary between the search indexer and the upstream enterprise_pages
// store, exposed as a port.RecordRepository so the indexing usecase never
// imports pgx directly.
package gateway

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"search-indexer/db"
	"search-indexer/domain"
)

// RecordGateway is the pgx-backed port.RecordRepository implementation.
type RecordGateway struct {
	pool *pgxpool.Pool
}

// New binds a RecordGateway to an already-configured connection pool.
func New(pool *pgxpool.Pool) *RecordGateway {
	return &RecordGateway{pool: pool}
}

// GetRecordsPage delegates to the db package's keyset-paginated query.
func (g *RecordGateway) GetRecordsPage(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Record, *time.Time, string, error) {
	return db.GetRecordsPage(ctx, g.pool, lastCreatedAt, lastID, limit)
}

// Close releases the underlying connection pool.
func (g *RecordGateway) Close() {
	g.pool.Close()
}
