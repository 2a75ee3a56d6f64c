package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/petal-labs/modalmcp/tool"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id TEXT PRIMARY KEY,
	call_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	direct INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_code TEXT NOT NULL,
	error TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tool_calls_recorded_at ON tool_calls (recorded_at);
CREATE TABLE IF NOT EXISTS command_runs (
	id TEXT PRIMARY KEY,
	argv TEXT NOT NULL,
	background INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	exit_code INTEGER NOT NULL,
	pid INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS command_runs_recorded_at ON command_runs (recorded_at);`

const (
	defaultJournalDir = ".modalmcp"
	defaultJournalDB  = "journal.db"
	// Fixed-width so recorded_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// CallEntry is one journaled tool call.
type CallEntry struct {
	ID         string    `json:"id"`
	CallID     string    `json:"call_id"`
	ToolName   string    `json:"tool_name"`
	Direct     bool      `json:"direct"`
	Success    bool      `json:"success"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CommandEntry is one journaled command execution.
type CommandEntry struct {
	ID         string    `json:"id"`
	Argv       []string  `json:"argv"`
	Background bool      `json:"background"`
	Succeeded  bool      `json:"succeeded"`
	ExitCode   int       `json:"exit_code"`
	PID        int       `json:"pid,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Config configures the SQLite journal.
type Config struct {
	DSN    string
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Store persists journal entries in SQLite. It implements tool.Observer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// DefaultPath returns ~/.modalmcp/journal.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("journal: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultJournalDir, defaultJournalDB), nil
}

// Open opens (or creates) the journal database at cfg.DSN.
func Open(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("journal: sqlite dsn is required")
	}
	if dir := filepath.Dir(cfg.DSN); dir != "." && !strings.HasPrefix(cfg.DSN, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("journal: sqlite open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: sqlite set WAL mode: %w", err)
	}

	if _, err := db.Exec(journalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: sqlite create schema: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, logger: logger, now: now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordCall appends a tool call.
func (s *Store) RecordCall(ctx context.Context, o tool.CallObservation) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tool_calls (id, call_id, tool_name, direct, success, error_code, error, duration_ms, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		o.CallID,
		o.ToolName,
		boolInt(o.Direct),
		boolInt(o.Success),
		o.ErrorCode,
		o.Error,
		o.DurationMS,
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("journal: sqlite insert call: %w", err)
	}
	return nil
}

// RecordCommand appends a command execution.
func (s *Store) RecordCommand(ctx context.Context, o tool.CommandObservation) error {
	argv, err := json.Marshal(o.Argv)
	if err != nil {
		return fmt.Errorf("journal: encode argv: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO command_runs (id, argv, background, succeeded, exit_code, pid, duration_ms, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		string(argv),
		boolInt(o.Background),
		boolInt(o.Succeeded),
		o.ExitCode,
		o.PID,
		o.DurationMS,
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("journal: sqlite insert command: %w", err)
	}
	return nil
}

// RecentCalls returns up to limit calls, newest first.
func (s *Store) RecentCalls(ctx context.Context, limit int) ([]CallEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, call_id, tool_name, direct, success, error_code, error, duration_ms, recorded_at
FROM tool_calls
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("journal: sqlite list calls: %w", err)
	}
	defer rows.Close()

	var entries []CallEntry
	for rows.Next() {
		var (
			entry           CallEntry
			direct, success int
			recordedAt      string
		)
		if err := rows.Scan(&entry.ID, &entry.CallID, &entry.ToolName, &direct, &success,
			&entry.ErrorCode, &entry.Error, &entry.DurationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("journal: sqlite scan call: %w", err)
		}
		entry.Direct = direct != 0
		entry.Success = success != 0
		if entry.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("journal: parse recorded_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: sqlite call rows: %w", err)
	}
	return entries, nil
}

// RecentCommands returns up to limit command executions, newest first.
func (s *Store) RecentCommands(ctx context.Context, limit int) ([]CommandEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, argv, background, succeeded, exit_code, pid, duration_ms, recorded_at
FROM command_runs
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("journal: sqlite list commands: %w", err)
	}
	defer rows.Close()

	var entries []CommandEntry
	for rows.Next() {
		var (
			entry                 CommandEntry
			argv, recordedAt      string
			background, succeeded int
		)
		if err := rows.Scan(&entry.ID, &argv, &background, &succeeded, &entry.ExitCode,
			&entry.PID, &entry.DurationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("journal: sqlite scan command: %w", err)
		}
		if err := json.Unmarshal([]byte(argv), &entry.Argv); err != nil {
			return nil, fmt.Errorf("journal: decode argv: %w", err)
		}
		entry.Background = background != 0
		entry.Succeeded = succeeded != 0
		if entry.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("journal: parse recorded_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: sqlite command rows: %w", err)
	}
	return entries, nil
}

// Prune deletes entries recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	bound := cutoff.UTC().Format(timeLayout)
	var total int64
	for _, table := range []string{"tool_calls", "command_runs"} {
		// #nosec G202 -- table names come from the fixed list above.
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE recorded_at < ?", bound)
		if err != nil {
			return total, fmt.Errorf("journal: sqlite prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("journal: sqlite prune %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// ObserveCall satisfies tool.Observer. Write failures are logged, not returned.
func (s *Store) ObserveCall(o tool.CallObservation) {
	if err := s.RecordCall(context.Background(), o); err != nil {
		s.logger.Warn("journal write failed", "call_id", o.CallID, "error", err)
	}
}

// ObserveCommand satisfies tool.Observer.
func (s *Store) ObserveCommand(o tool.CommandObservation) {
	if err := s.RecordCommand(context.Background(), o); err != nil {
		s.logger.Warn("journal write failed", "argv", o.Argv, "error", err)
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

var _ tool.Observer = (*Store)(nil)
