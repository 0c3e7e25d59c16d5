package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreMergeWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.MergeWrite(ctx, "tickets", "T-1", Document{"Address": "123 Main"}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if err := s.MergeWrite(ctx, "tickets", "T-1", Document{"WorkType": "Excavation"}); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	doc, err := s.Get(ctx, "tickets", "T-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["Address"] != "123 Main" {
		t.Errorf("Address lost after merge: %v", doc["Address"])
	}
	if doc["WorkType"] != "Excavation" {
		t.Errorf("WorkType missing after merge: %v", doc["WorkType"])
	}
	if doc["id"] != "T-1" {
		t.Errorf("expected id field, got %v", doc["id"])
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "tickets", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, row := range []struct {
		id     string
		client string
		at     string
	}{
		{"T-1", "acme", "2026-01-01T00:00:00Z"},
		{"T-2", "acme", "2026-01-03T00:00:00Z"},
		{"T-3", "globex", "2026-01-02T00:00:00Z"},
	} {
		err := s.MergeWrite(ctx, "tickets", row.id, Document{"clientId": row.client, "updatedAt": row.at})
		if err != nil {
			t.Fatalf("seed %s: %v", row.id, err)
		}
	}

	docs, err := s.Query(ctx, "tickets", Query{
		Filters:    []Filter{{Field: "clientId", Value: "acme"}},
		OrderBy:    "updatedAt",
		Descending: true,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0]["id"] != "T-2" || docs[1]["id"] != "T-1" {
		t.Errorf("wrong order: %v then %v", docs[0]["id"], docs[1]["id"])
	}

	limited, err := s.Query(ctx, "tickets", Query{OrderBy: "updatedAt", Descending: true, Limit: 1})
	if err != nil {
		t.Fatalf("limited query: %v", err)
	}
	if len(limited) != 1 || limited[0]["id"] != "T-2" {
		t.Errorf("limit not applied: %v", limited)
	}
}

func TestMemoryStoreInsertAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id1, err := s.Insert(ctx, "responses", Document{"ResponseCode": "1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := s.Insert(ctx, "responses", Document{"ResponseCode": "2"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("generated ids collide: %s", id1)
	}

	if err := s.Delete(ctx, "responses", id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "responses", id1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// deleting twice is not an error
	if err := s.Delete(ctx, "responses", id1); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
