package database

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

var testDBSeq int64

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := New(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Initialize runs every column probe over the single-connection SQLite pool.
// A probe that held its connection open would block all queries after it, so
// the whole sequence has to finish promptly and leave the pool usable.
func TestInitializeReleasesProbeConnections(t *testing.T) {
	db := openTestDB(t)

	done := make(chan error, 1)
	go func() { done <- db.Initialize() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("initialize: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("initialize did not complete; a schema probe is holding the connection")
	}

	// The pool must still serve queries back to back
	for i := 0; i < 3; i++ {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM journals").Scan(&n); err != nil {
			t.Fatalf("query %d after initialize: %v", i, err)
		}
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	now := time.Now().UTC()
	if _, err := db.Exec(
		"INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)",
		"u1", now, now,
	); err != nil {
		t.Fatalf("insert after re-initialize: %v", err)
	}

	var rating *int
	if err := db.QueryRow(
		"SELECT inferred_day_rating FROM journals WHERE id = ?", "missing",
	).Scan(&rating); err == nil {
		t.Fatal("expected no rows for missing journal")
	}
}
