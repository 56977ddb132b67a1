package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"search-indexer/domain"
	"search-indexer/index"
	"search-indexer/queryproc"
	"search-indexer/router"
	"search-indexer/searchservice"
	"search-indexer/tokenize"
)

func newTestHandler(t *testing.T) (*IndexEventHandler, *router.Router) {
	t.Helper()
	tok, err := tokenize.New(tokenize.BackendNormal, nil)
	require.NoError(t, err)
	proc := queryproc.New(tok)

	eng, err := index.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	svc, err := searchservice.New(eng, proc)
	require.NoError(t, err)

	r := router.New(
		map[string]*searchservice.Service{"tokyo": svc},
		map[string]router.PrefectureConfig{"tokyo": {Name: "東京都"}},
	)
	return NewIndexEventHandler(r, slog.Default()), r
}

func upsertPayload(id string) json.RawMessage {
	b, _ := json.Marshal(RecordUpsertedPayload{
		Record:     domain.Record{ID: id, JCN: "J-" + id, ContentTokens: "検索"},
		Prefecture: "tokyo",
	})
	return b
}

func TestIndexEventHandler_HandleEvent_RecordUpserted(t *testing.T) {
	handler, r := newTestHandler(t)
	defer handler.Stop()

	err := handler.HandleEvent(context.Background(), Event{
		EventType: "RecordUpserted",
		EventID:   "evt-1",
		Payload:   upsertPayload("rec-1"),
	})
	require.NoError(t, err)

	handler.Stop()

	stats, err := r.StatsFor(context.Background(), "tokyo")
	require.NoError(t, err)
	if stats.TotalDocuments != 1 {
		t.Errorf("expected 1 indexed doc, got %d", stats.TotalDocuments)
	}
}

func TestIndexEventHandler_HandleEvent_UnknownType(t *testing.T) {
	handler, _ := newTestHandler(t)
	defer handler.Stop()

	err := handler.HandleEvent(context.Background(), Event{
		EventType: "UnknownEvent",
		EventID:   "evt-3",
	})
	if err != nil {
		t.Fatalf("HandleEvent() should return nil for unknown events, got %v", err)
	}
}

func TestIndexEventHandler_HandleEvent_InvalidPayload(t *testing.T) {
	handler, _ := newTestHandler(t)
	defer handler.Stop()

	err := handler.HandleEvent(context.Background(), Event{
		EventType: "RecordUpserted",
		EventID:   "evt-4",
		Payload:   json.RawMessage(`{invalid json}`),
	})
	if err == nil {
		t.Fatal("HandleEvent() should return error for invalid payload")
	}
}

func TestIndexEventHandler_BatchFlush(t *testing.T) {
	handler, r := newTestHandler(t)
	defer handler.Stop()

	for i := 0; i < batchFlushSize; i++ {
		id := "rec-" + string(rune('a'+i))
		err := handler.HandleEvent(context.Background(), Event{
			EventType: "RecordUpserted",
			EventID:   "evt-batch",
			Payload:   upsertPayload(id),
		})
		require.NoError(t, err)
	}

	time.Sleep(100 * time.Millisecond)

	stats, err := r.StatsFor(context.Background(), "tokyo")
	require.NoError(t, err)
	if stats.TotalDocuments != uint64(batchFlushSize) {
		t.Errorf("expected %d indexed docs after batch flush, got %d", batchFlushSize, stats.TotalDocuments)
	}
}

func TestIndexEventHandler_HandleEvent_MintsIDWhenMissing(t *testing.T) {
	handler, r := newTestHandler(t)
	defer handler.Stop()

	payload, _ := json.Marshal(RecordUpsertedPayload{
		Record:     domain.Record{JCN: "J-no-id", ContentTokens: "検索"},
		Prefecture: "tokyo",
	})
	err := handler.HandleEvent(context.Background(), Event{
		EventType: "RecordUpserted",
		EventID:   "evt-no-id",
		Payload:   payload,
	})
	require.NoError(t, err)

	handler.Stop()

	stats, err := r.StatsFor(context.Background(), "tokyo")
	require.NoError(t, err)
	if stats.TotalDocuments != 1 {
		t.Errorf("expected the record to be indexed under a minted id, got %d docs", stats.TotalDocuments)
	}
}

func TestIndexEventHandler_Deduplication(t *testing.T) {
	handler, r := newTestHandler(t)
	defer handler.Stop()

	for i := 0; i < 5; i++ {
		err := handler.HandleEvent(context.Background(), Event{
			EventType: "RecordUpserted",
			EventID:   "evt-dup",
			Payload:   upsertPayload("dup-1"),
		})
		require.NoError(t, err)
	}

	handler.Stop()

	stats, err := r.StatsFor(context.Background(), "tokyo")
	require.NoError(t, err)
	if stats.TotalDocuments != 1 {
		t.Errorf("expected 1 indexed doc after deduplication, got %d", stats.TotalDocuments)
	}
}

func TestIndexEventHandler_HandleEvent_RecordDeleted(t *testing.T) {
	handler, r := newTestHandler(t)
	defer handler.Stop()

	require.NoError(t, r.AddDocument(context.Background(), "tokyo", &domain.Record{ID: "rec-del", JCN: "J-del", ContentTokens: "検索"}))

	payload, _ := json.Marshal(RecordDeletedPayload{ID: "rec-del", Prefecture: "tokyo"})
	err := handler.HandleEvent(context.Background(), Event{
		EventType: "RecordDeleted",
		EventID:   "evt-del",
		Payload:   payload,
	})
	require.NoError(t, err)

	stats, err := r.StatsFor(context.Background(), "tokyo")
	require.NoError(t, err)
	if stats.TotalDocuments != 0 {
		t.Errorf("expected 0 documents after delete, got %d", stats.TotalDocuments)
	}
}
