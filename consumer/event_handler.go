// Package consumer implements component N: the message-queue consumer that
// indexes enterprise records as upsert events arrive, rather than waiting
// for the next full repository page scan. It batches and deduplicates
// before writing, since crawl pipelines routinely emit several updates for
// the same URL within a short window.
//
// Grounded on the teacher's own event_handler_test.go (whose implementation
// file was never checked in): the same batch-then-flush, dedup-by-ID, 2s
// timer, and explicit Stop() idiom, generalized from article-ID lookups
// against an article repository to enterprise records carried inline in the
// event payload (the upstream publisher already has the full record; there
// is no equivalent of the teacher's GetArticleByID round-trip to make here).
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"search-indexer/domain"
	"search-indexer/router"
)

// batchFlushSize is how many pending records trigger an immediate flush
// instead of waiting for the timer.
const batchFlushSize = 50

// flushInterval is how long a partial batch waits before flushing anyway.
const flushInterval = 2 * time.Second

// Event is the generic envelope every message the queue delivers arrives
// in: a type tag used to dispatch and a type-specific JSON payload.
type Event struct {
	EventType string
	EventID   string
	Payload   json.RawMessage
}

// RecordUpsertedPayload carries one enterprise record to index, already
// resolved by the publisher (this is an ingest event, not a pointer to look
// one up).
type RecordUpsertedPayload struct {
	Record     domain.Record `json:"record"`
	Prefecture string        `json:"prefecture"`
}

// RecordDeletedPayload names one record to remove from its shard.
type RecordDeletedPayload struct {
	ID         string `json:"id"`
	Prefecture string `json:"prefecture"`
}

type pendingKey struct {
	prefecture string
	id         string
}

// IndexEventHandler consumes upsert/delete events, deduplicating by
// (prefecture, id) and flushing in batches to the router.
type IndexEventHandler struct {
	router *router.Router
	logger *slog.Logger

	mu      sync.Mutex
	pending map[pendingKey]*domain.Record
	order   []pendingKey
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewIndexEventHandler binds the handler to the router it flushes batches
// into and starts its idle flush timer.
func NewIndexEventHandler(r *router.Router, logger *slog.Logger) *IndexEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &IndexEventHandler{
		router:  r,
		logger:  logger,
		pending: map[pendingKey]*domain.Record{},
	}
	h.timer = time.AfterFunc(flushInterval, h.flushOnTimer)
	return h
}

// HandleEvent dispatches one event by type, unknown types are ignored
// rather than treated as an error since the consumer may share a topic with
// other subscribers.
func (h *IndexEventHandler) HandleEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case "RecordUpserted":
		var payload RecordUpsertedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		h.enqueueUpsert(ctx, payload)
		return nil
	case "RecordDeleted":
		var payload RecordDeletedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		return h.handleDelete(ctx, payload)
	default:
		h.logger.Debug("consumer: ignoring unrecognized event type", "event_type", event.EventType, "event_id", event.EventID)
		return nil
	}
}

func (h *IndexEventHandler) enqueueUpsert(ctx context.Context, payload RecordUpsertedPayload) {
	rec := payload.Record
	rec.Normalize()
	if rec.ID == "" {
		// A freshly-crawled page may reach the queue before the upstream
		// crawler has assigned a durable primary key; mint one so the
		// record is still addressable for dedup and future deletes.
		rec.ID = uuid.NewString()
	}
	key := pendingKey{prefecture: payload.Prefecture, id: rec.ID}

	h.mu.Lock()
	if _, exists := h.pending[key]; !exists {
		h.order = append(h.order, key)
	}
	h.pending[key] = &rec
	shouldFlush := len(h.pending) >= batchFlushSize
	h.mu.Unlock()

	if shouldFlush {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.flush(ctx)
		}()
	}
}

func (h *IndexEventHandler) handleDelete(ctx context.Context, payload RecordDeletedPayload) error {
	_, err := h.router.DeleteDocument(ctx, payload.Prefecture, payload.ID)
	return err
}

func (h *IndexEventHandler) flushOnTimer() {
	h.flush(context.Background())
	h.mu.Lock()
	if !h.stopped {
		h.timer.Reset(flushInterval)
	}
	h.mu.Unlock()
}

// flush drains the pending set, grouping by prefecture, and writes each
// group to the router in one batch call.
func (h *IndexEventHandler) flush(ctx context.Context) {
	h.mu.Lock()
	if len(h.pending) == 0 {
		h.mu.Unlock()
		return
	}
	byPrefecture := map[string][]*domain.Record{}
	for _, key := range h.order {
		rec, ok := h.pending[key]
		if !ok {
			continue
		}
		byPrefecture[key.prefecture] = append(byPrefecture[key.prefecture], rec)
	}
	h.pending = map[pendingKey]*domain.Record{}
	h.order = nil
	h.mu.Unlock()

	for prefecture, recs := range byPrefecture {
		if err := h.router.AddDocumentsBatch(ctx, prefecture, recs); err != nil {
			h.logger.Error("consumer: failed flushing batch", "prefecture", prefecture, "count", len(recs), "err", err)
		}
	}
}

// Stop cancels the idle timer and flushes any remaining pending records,
// waiting for any in-flight flush to finish first.
func (h *IndexEventHandler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.timer.Stop()
	h.mu.Unlock()

	h.wg.Wait()
	h.flush(context.Background())
}
