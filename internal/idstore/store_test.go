package idstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"siteplan/internal/db"
	"siteplan/internal/migrate"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	return conn
}

func record(at string) ExportRecord {
	ts, _ := time.Parse(time.RFC3339, at)
	return ExportRecord{ProjectID: "p1", Family: "msproject", ExportedAt: ts, ByteCount: 10, NodeCount: 3}
}

func TestLoadFreshScope(t *testing.T) {
	s := New(newTestDB(t))
	state, err := s.Load(context.Background(), "p1", "msproject")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Assignments) != 0 || state.NextID != 1 {
		t.Fatalf("fresh state = %+v", state)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	rows := []Assignment{
		{ObjectType: "work_area", ObjectGUID: "w1", UniqueID: 1},
		{ObjectType: "task", ObjectGUID: "t1", UniqueID: 2},
	}
	if err := s.Replace(ctx, "p1", "msproject", rows, 3, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}

	state, err := s.Load(ctx, "p1", "msproject")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Assignments) != 2 || state.NextID != 3 {
		t.Fatalf("state = %+v", state)
	}
	if state.Assignments[0].ObjectGUID != "w1" || state.Assignments[1].ObjectGUID != "t1" {
		t.Fatalf("assignments out of order: %+v", state.Assignments)
	}
}

func TestReplaceDropsStaleRowsKeepsSequence(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	first := []Assignment{
		{ObjectType: "task", ObjectGUID: "t1", UniqueID: 1},
		{ObjectType: "task", ObjectGUID: "t2", UniqueID: 2},
	}
	if err := s.Replace(ctx, "p1", "msproject", first, 3, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}

	// t2 disappears; its number must stay burned via the sequence.
	second := []Assignment{{ObjectType: "task", ObjectGUID: "t1", UniqueID: 1}}
	if err := s.Replace(ctx, "p1", "msproject", second, 3, record("2026-08-29T11:00:00Z")); err != nil {
		t.Fatal(err)
	}

	state, err := s.Load(ctx, "p1", "msproject")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Assignments) != 1 || state.Assignments[0].ObjectGUID != "t1" {
		t.Fatalf("assignments = %+v", state.Assignments)
	}
	if state.NextID != 3 {
		t.Fatalf("next id = %d, want 3", state.NextID)
	}
}

func TestSequenceNeverMovesBackward(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	if err := s.Replace(ctx, "p1", "msproject", nil, 10, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(ctx, "p1", "msproject", nil, 5, record("2026-08-29T11:00:00Z")); err != nil {
		t.Fatal(err)
	}
	state, err := s.Load(ctx, "p1", "msproject")
	if err != nil {
		t.Fatal(err)
	}
	if state.NextID != 10 {
		t.Fatalf("next id = %d, want 10", state.NextID)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	rows := []Assignment{{ObjectType: "task", ObjectGUID: "t1", UniqueID: 1}}
	if err := s.Replace(ctx, "p1", "msproject", rows, 2, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}

	state, err := s.Load(ctx, "p1", "p6")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Assignments) != 0 || state.NextID != 1 {
		t.Fatalf("p6 scope not fresh: %+v", state)
	}
}

func TestResetClearsScope(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	rows := []Assignment{{ObjectType: "task", ObjectGUID: "t1", UniqueID: 1}}
	if err := s.Replace(ctx, "p1", "msproject", rows, 2, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx, "p1", "msproject"); err != nil {
		t.Fatal(err)
	}
	state, err := s.Load(ctx, "p1", "msproject")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Assignments) != 0 || state.NextID != 1 {
		t.Fatalf("scope not reset: %+v", state)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s := New(newTestDB(t))
	ctx := context.Background()

	if err := s.Replace(ctx, "p1", "msproject", nil, 1, record("2026-08-29T10:00:00Z")); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(ctx, "p1", "p6", nil, 1, record("2026-08-29T11:00:00Z")); err != nil {
		t.Fatal(err)
	}

	records, err := s.History(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("history = %d records", len(records))
	}
	if records[0].Family != "p6" || records[1].Family != "msproject" {
		t.Fatalf("history order = %s, %s", records[0].Family, records[1].Family)
	}

	other, err := s.History(ctx, "p2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Fatalf("unexpected history for p2: %+v", other)
	}
}
