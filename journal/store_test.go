package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/petal-labs/modalmcp/tool"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func openTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()

	cfg := Config{DSN: filepath.Join(t.TempDir(), "nested", "journal.db")}
	if clock != nil {
		cfg.Now = clock.Now
	}
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Open() error = nil, want error")
	}
}

func TestStoreRecordsCallsNewestFirst(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := openTestStore(t, clock)
	ctx := context.Background()

	store.ObserveCall(tool.CallObservation{CallID: "c1", ToolName: "deploy_modal_app", Success: true, DurationMS: 12})
	clock.now = clock.now.Add(time.Second)
	store.ObserveCall(tool.CallObservation{
		CallID:    "c2",
		ToolName:  "run_modal_function",
		Direct:    true,
		ErrorCode: tool.ToolErrorCodeProcessFailed,
		Error:     "Function execution failed: boom",
	})

	entries, err := store.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	latest := entries[0]
	if latest.CallID != "c2" || latest.ToolName != "run_modal_function" {
		t.Fatalf("entries[0] = %+v, want c2 run_modal_function", latest)
	}
	if !latest.Direct || latest.Success {
		t.Fatalf("entries[0] flags = direct %v success %v, want true false", latest.Direct, latest.Success)
	}
	if latest.ErrorCode != tool.ToolErrorCodeProcessFailed {
		t.Fatalf("entries[0].ErrorCode = %q, want %q", latest.ErrorCode, tool.ToolErrorCodeProcessFailed)
	}
	if !latest.RecordedAt.Equal(clock.now) {
		t.Fatalf("entries[0].RecordedAt = %v, want %v", latest.RecordedAt, clock.now)
	}
	if entries[1].CallID != "c1" || !entries[1].Success || entries[1].DurationMS != 12 {
		t.Fatalf("entries[1] = %+v, want successful c1", entries[1])
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Fatalf("entry ids = %q, %q, want distinct non-empty", entries[0].ID, entries[1].ID)
	}
}

func TestStoreRecentCallsLimit(t *testing.T) {
	store := openTestStore(t, nil)
	for i := 0; i < 5; i++ {
		store.ObserveCall(tool.CallObservation{CallID: "c", ToolName: "list_modal_volumes", Success: true})
	}

	entries, err := store.RecentCalls(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecentCalls() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
}

func TestStoreRecordsCommands(t *testing.T) {
	store := openTestStore(t, nil)

	store.ObserveCommand(tool.CommandObservation{
		Argv:       []string{"modal", "run", "app.py::main"},
		Background: true,
		Succeeded:  true,
		PID:        4242,
		DurationMS: 2000,
	})

	entries, err := store.RecentCommands(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if len(got.Argv) != 3 || got.Argv[2] != "app.py::main" {
		t.Fatalf("Argv = %v, want modal run app.py::main", got.Argv)
	}
	if !got.Background || !got.Succeeded || got.PID != 4242 {
		t.Fatalf("entry = %+v, want background success pid 4242", got)
	}
}

func TestStorePrune(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store := openTestStore(t, clock)
	ctx := context.Background()

	store.ObserveCall(tool.CallObservation{CallID: "old", ToolName: "deploy_modal_app", Success: true})
	store.ObserveCommand(tool.CommandObservation{Argv: []string{"modal", "deploy", "app.py"}, Succeeded: true})
	clock.now = clock.now.Add(48 * time.Hour)
	store.ObserveCall(tool.CallObservation{CallID: "new", ToolName: "deploy_modal_app", Success: true})

	removed, err := store.Prune(ctx, clock.now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	calls, err := store.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls() error = %v", err)
	}
	if len(calls) != 1 || calls[0].CallID != "new" {
		t.Fatalf("calls = %+v, want only new", calls)
	}
	commands, err := store.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}
	if len(commands) != 0 {
		t.Fatalf("commands = %+v, want none", commands)
	}
}
