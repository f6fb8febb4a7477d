package state

import (
	"testing"
	"time"

	"github.com/modsmith/modsmith/internal/loader"
	"github.com/modsmith/modsmith/internal/plugin"
)

func TestSaveAndLoadSession(t *testing.T) {
	stamp := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewStore(t.TempDir(), WithClock(func() time.Time { return stamp }))
	report := loader.Report{
		Session: "abc-123",
		Outcomes: []loader.Outcome{
			{ID: "core-lib", Status: plugin.StatusLoaded},
			{ID: "map-pack", Status: plugin.StatusFailed, Err: "boom"},
		},
	}
	if err := store.SaveSession(report); err != nil {
		t.Fatalf("save session: %v", err)
	}
	record, err := store.LastSession()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if record == nil {
		t.Fatalf("expected a persisted record")
	}
	if record.Session != "abc-123" || !record.SavedAt.Equal(stamp) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.Report.Outcomes) != 2 || record.Report.Outcomes[1].Err != "boom" {
		t.Fatalf("unexpected report: %+v", record.Report)
	}
}

func TestLastSessionMissingIsNil(t *testing.T) {
	store := NewStore(t.TempDir())
	record, err := store.LastSession()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestSaveSessionOverwritesPrevious(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SaveSession(loader.Report{Session: "first"}); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveSession(loader.Report{Session: "second"}); err != nil {
		t.Fatalf("save second: %v", err)
	}
	record, err := store.LastSession()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if record == nil || record.Session != "second" {
		t.Fatalf("expected latest record, got %+v", record)
	}
}
