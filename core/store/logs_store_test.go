package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testLog(eventID int64) *IncidentLog {
	return &IncidentLog{
		EventID:          eventID,
		Occurrence:       "test occurrence",
		ActionTaken:      "test action",
		IncidentType:     "Medical",
		Priority:         "medium",
		TimeOfOccurrence: time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC),
		EntryType:        "contemporaneous",
		Status:           "open",
		Type:             "incident",
		Source:           "manual",
		LoggedBy:         1,
	}
}

var testNumber = LogNumberSpec{Prefix: "WEM", DateSegment: "20240315", Pad: 3}

func TestCreateLogSequentialNumbers(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		entry := testLog(1)
		if _, err := logs.CreateLog(ctx, entry, testNumber); err != nil {
			t.Fatalf("create log %d: %v", i, err)
		}
		want := fmt.Sprintf("WEM-20240315-%03d", i)
		if entry.LogNumber != want {
			t.Fatalf("expected %q, got %q", want, entry.LogNumber)
		}
	}
}

func TestCreateLogSequencePerEvent(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()

	first := testLog(1)
	if _, err := logs.CreateLog(ctx, first, testNumber); err != nil {
		t.Fatalf("create log: %v", err)
	}
	other := testLog(2)
	if _, err := logs.CreateLog(ctx, other, LogNumberSpec{Prefix: "O2A", DateSegment: "20240316", Pad: 3}); err != nil {
		t.Fatalf("create log: %v", err)
	}
	if other.LogNumber != "O2A-20240316-001" {
		t.Fatalf("expected independent per-event sequence, got %q", other.LogNumber)
	}
}

func TestCreateLogKeepsExplicitNumber(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()

	entry := testLog(1)
	entry.LogNumber = "WEM-20240315-777"
	if _, err := logs.CreateLog(ctx, entry, testNumber); err != nil {
		t.Fatalf("create log: %v", err)
	}
	if entry.LogNumber != "WEM-20240315-777" {
		t.Fatalf("expected explicit number to be kept, got %q", entry.LogNumber)
	}
}

func TestGetLogByNumber(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()

	entry := testLog(1)
	if _, err := logs.CreateLog(ctx, entry, testNumber); err != nil {
		t.Fatalf("create log: %v", err)
	}
	got, err := logs.GetLogByNumber(ctx, 1, entry.LogNumber)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if got == nil || got.ID != entry.ID {
		t.Fatalf("expected entry %d, got %+v", entry.ID, got)
	}
	missing, err := logs.GetLogByNumber(ctx, 1, "WEM-20240315-999")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown number, got %+v err=%v", missing, err)
	}
}

func TestListMatchLogsOrderedAscending(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)

	times := []time.Time{t0.Add(45 * time.Minute), t0, t0.Add(20 * time.Minute)}
	for _, at := range times {
		entry := testLog(1)
		entry.Type = "match_log"
		entry.IncidentType = "Home Goal"
		entry.TimeOfOccurrence = at
		if _, err := logs.CreateLog(ctx, entry, testNumber); err != nil {
			t.Fatalf("create match log: %v", err)
		}
	}
	rows, err := logs.ListMatchLogs(ctx, 1)
	if err != nil {
		t.Fatalf("list match logs: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].TimeOfOccurrence.Before(rows[i-1].TimeOfOccurrence) {
			t.Fatal("expected ascending time_of_occurrence order")
		}
	}
}

func TestListLogsLoggedSinceWindow(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := testLog(1)
	old.TimeLogged = now.Add(-10 * time.Minute)
	if _, err := logs.CreateLog(ctx, old, testNumber); err != nil {
		t.Fatalf("create old log: %v", err)
	}
	fresh := testLog(1)
	fresh.TimeLogged = now.Add(-time.Minute)
	if _, err := logs.CreateLog(ctx, fresh, testNumber); err != nil {
		t.Fatalf("create fresh log: %v", err)
	}

	rows, err := logs.ListLogsLoggedSince(ctx, 1, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("list logged since: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh row, got %d rows", len(rows))
	}
}

func TestListLogsFilters(t *testing.T) {
	db := openTestDB(t)
	logs := NewLogsStore(db)
	ctx := context.Background()

	open := testLog(1)
	if _, err := logs.CreateLog(ctx, open, testNumber); err != nil {
		t.Fatalf("create open log: %v", err)
	}
	closed := testLog(1)
	closed.Status = "logged"
	closed.IsClosed = true
	closed.IncidentType = "Attendance"
	if _, err := logs.CreateLog(ctx, closed, testNumber); err != nil {
		t.Fatalf("create closed log: %v", err)
	}

	rows, err := logs.ListLogs(ctx, LogFilter{EventID: 1, OpenOnly: true})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != open.ID {
		t.Fatalf("expected only the open row, got %d rows", len(rows))
	}

	rows, err = logs.ListLogs(ctx, LogFilter{EventID: 1, IncidentType: "Attendance"})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != closed.ID {
		t.Fatalf("expected only the attendance row, got %d rows", len(rows))
	}
}
