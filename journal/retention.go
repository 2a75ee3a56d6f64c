package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultPruneSchedule runs retention at the top of every hour.
	DefaultPruneSchedule = "0 * * * *"
	DefaultRetention     = 7 * 24 * time.Hour
)

var retentionParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// ParseSchedule parses a five-field cron expression evaluated in UTC.
func ParseSchedule(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, errors.New("journal: cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, errors.New("journal: cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := retentionParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("journal: invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NextPrune reports when schedule fires next after now.
func NextPrune(expr string, now time.Time) (time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(now.UTC()), nil
}

// PrunerConfig configures periodic journal retention.
type PrunerConfig struct {
	Store     *Store
	Schedule  string
	Retention time.Duration
	Logger    *slog.Logger
}

// Pruner deletes journal entries older than the retention window on a
// cron schedule.
type Pruner struct {
	store     *Store
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewPruner validates the schedule and registers the retention job. Call
// Start to begin running it.
func NewPruner(cfg PrunerConfig) (*Pruner, error) {
	if cfg.Store == nil {
		return nil, errors.New("journal: pruner requires a store")
	}
	expr := cfg.Schedule
	if strings.TrimSpace(expr) == "" {
		expr = DefaultPruneSchedule
	}
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		store:     cfg.Store,
		retention: retention,
		logger:    logger,
		cron:      cron.New(cron.WithParser(retentionParser), cron.WithLocation(time.UTC)),
	}
	p.cron.Schedule(schedule, cron.FuncJob(func() {
		if _, err := p.RunOnce(context.Background()); err != nil {
			p.logger.Warn("journal prune failed", "error", err)
		}
	}))
	return p, nil
}

// RunOnce prunes immediately.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.store.now().Add(-p.retention)
	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	p.logger.Debug("journal pruned", "removed", removed, "cutoff", cutoff.UTC())
	return removed, nil
}

// Start runs the schedule in its own goroutine.
func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish or ctx
// to expire.
func (p *Pruner) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
