package querylog

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestDirectRecorder_InsertsOncePerEvent(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	rec := NewDirectRecorder(repo)
	ctx := context.Background()

	ev, err := NewEvent("s1", "default", "traffic data", 2, 12.5)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if err := rec.Record(ctx, ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	// redelivery of the same event
	if err := rec.Record(ctx, ev); err != nil {
		t.Fatalf("record again: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestListBySession_NewestFirst(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		e := &Entry{
			ID:        fmt.Sprintf("%026d", i),
			SessionID: "s1",
			IndexName: "default",
			Query:     q,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := repo.Insert(ctx, &Entry{ID: "other", SessionID: "s2", IndexName: "default", Query: "x", CreatedAt: base}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.ListBySession(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Query != "third" || got[1].Query != "second" {
		t.Fatalf("unexpected order: %q, %q", got[0].Query, got[1].Query)
	}
}
