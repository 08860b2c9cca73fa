package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Refresher re-runs Cache.Refresh on a cron schedule so active providers'
// catalogs stay warm without a request paying the fetch cost.
type Refresher struct {
	cache    *Cache
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRefresher creates a refresher for the given cron expression
// (standard five-field syntax).
func NewRefresher(cache *Cache, schedule string) (*Refresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("catalog: invalid refresh schedule %q: %w", schedule, err)
	}
	return &Refresher{
		cache:    cache,
		schedule: schedule,
		logger:   slog.Default().With("component", "catalog.refresher"),
	}, nil
}

// Start begins scheduled refreshing until ctx is cancelled or Stop is
// called.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("catalog: refresher already running")
	}

	r.cron = cron.New()
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.cache.Refresh(context.Background())
	})
	if err != nil {
		return fmt.Errorf("catalog: schedule refresh job: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("catalog refresher started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop halts scheduled refreshing, waiting for an in-flight run.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("catalog refresher stopped")
}

// IsRunning reports whether the refresher is active.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
