package db

import (
	"context"
	"testing"
)

func TestGetRecordsPage_NilPoolReturnsError(t *testing.T) {
	records, cursorTime, cursorID, err := GetRecordsPage(context.Background(), nil, nil, "", 10)

	if err == nil {
		t.Fatal("expected an error when pool is nil")
	}
	if records != nil {
		t.Errorf("expected nil records, got %v", records)
	}
	if cursorTime != nil {
		t.Errorf("expected nil cursor time, got %v", cursorTime)
	}
	if cursorID != "" {
		t.Errorf("expected empty cursor id, got %q", cursorID)
	}
}
