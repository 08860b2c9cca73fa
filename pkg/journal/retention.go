package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/clock"
)

// Pruner deletes journal records older than a retention window.
type Pruner struct {
	store  Store
	days   int
	clk    clock.Clock
	logger *slog.Logger
}

// NewPruner creates a pruner removing records older than days. A
// non-positive days disables pruning: Run becomes a no-op.
func NewPruner(store Store, days int, clk clock.Clock) *Pruner {
	if clk == nil {
		clk = clock.New()
	}
	return &Pruner{
		store:  store,
		days:   days,
		clk:    clk,
		logger: slog.Default().With("component", "journal.retention"),
	}
}

// Run performs one pruning pass, returning how many records were removed.
func (p *Pruner) Run(ctx context.Context) (int64, error) {
	if p.days <= 0 {
		return 0, nil
	}

	cutoff := p.clk.Now().Add(-time.Duration(p.days) * 24 * time.Hour)
	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("journal: retention prune: %w", err)
	}

	if removed > 0 {
		p.logger.Info("pruned journal records",
			"removed", removed,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return removed, nil
}

// Scheduler runs a Pruner on a cron schedule.
type Scheduler struct {
	pruner   *Pruner
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for the given cron expression
// (standard five-field syntax, e.g. "0 3 * * *").
func NewScheduler(pruner *Pruner, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("journal: invalid retention schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		logger:   slog.Default().With("component", "journal.retention"),
	}, nil
}

// Start begins scheduled pruning. The scheduler stops when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("journal: retention scheduler already running")
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.pruner.Run(context.Background()); err != nil {
			s.logger.Error("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("journal: schedule retention job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduled pruning, waiting for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
