package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/petal-labs/modalmcp/tool"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{name: "hourly", expr: "0 * * * *"},
		{name: "padded", expr: "  */15 * * * *  "},
		{name: "empty", expr: " ", wantErr: "required"},
		{name: "timezone", expr: "CRON_TZ=Europe/Paris 0 * * * *", wantErr: "UTC-only"},
		{name: "six fields", expr: "0 0 * * * *", wantErr: "invalid cron expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.expr)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseSchedule(%q) error = %v", tt.expr, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ParseSchedule(%q) error = %v, want containing %q", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNextPrune(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	next, err := NextPrune("0 * * * *", now)
	if err != nil {
		t.Fatalf("NextPrune() error = %v", err)
	}
	want := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("NextPrune() = %v, want %v", next, want)
	}
}

func TestNewPrunerValidation(t *testing.T) {
	if _, err := NewPruner(PrunerConfig{}); err == nil {
		t.Fatal("NewPruner() without store error = nil, want error")
	}

	store := openTestStore(t, nil)
	if _, err := NewPruner(PrunerConfig{Store: store, Schedule: "not a cron"}); err == nil {
		t.Fatal("NewPruner() with bad schedule error = nil, want error")
	}
}

func TestPrunerRunOnceUsesRetention(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store := openTestStore(t, clock)

	store.ObserveCall(tool.CallObservation{CallID: "stale", ToolName: "list_modal_volumes", Success: true})
	clock.now = clock.now.Add(2 * time.Hour)
	store.ObserveCall(tool.CallObservation{CallID: "fresh", ToolName: "list_modal_volumes", Success: true})

	pruner, err := NewPruner(PrunerConfig{Store: store, Retention: time.Hour})
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}
	pruner.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		pruner.Stop(ctx)
	}()

	removed, err := pruner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}
