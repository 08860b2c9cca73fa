package runtime

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/retry"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
	"mercator-hq/ganymede/pkg/tokens"
	"mercator-hq/ganymede/pkg/transport"
)

// NewFromConfig assembles a runtime and everything around it from a loaded
// configuration: provider overlays, limiter and breaker tuning, estimator
// selection, metrics, tracing, the usage journal, and the persistent model
// catalog. The runtime owns what this builds; Close releases it all.
func NewFromConfig(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("runtime: config is required")
	}

	var closers []func() error

	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("runtime: tracing: %w", err)
	}
	closers = append(closers, func() error {
		return tracer.Shutdown(context.Background())
	})

	client, err := transport.New(transport.Config{PropagateTrace: cfg.Tracing.Enabled})
	if err != nil {
		return nil, err
	}
	reg := registry.New(registry.Options{HTTP: client})
	if err := cfg.Apply(reg); err != nil {
		return nil, fmt.Errorf("runtime: apply provider config: %w", err)
	}

	var estimator tokens.Estimator
	switch cfg.Estimator.Mode {
	case config.EstimatorTiktoken:
		estimator = tokens.NewTiktoken()
	default:
		estimator = tokens.NewHeuristic(cfg.Estimator.CharsPerToken, cfg.Estimator.MessageOverhead)
	}

	collector := metrics.NewCollector(&cfg.Metrics, nil)

	var recorder *journal.Recorder
	if cfg.Journal.Enabled {
		var store journal.Store
		switch cfg.Journal.Backend {
		case config.JournalBackendSQLite:
			sqlite, err := journal.NewSQLiteStore(cfg.Journal.SQLitePath)
			if err != nil {
				return nil, err
			}
			store = sqlite

			pruner := journal.NewPruner(sqlite, cfg.Journal.Retention.Days, nil)
			if cfg.Journal.Retention.Days > 0 {
				sched, err := journal.NewScheduler(pruner, cfg.Journal.Retention.Schedule)
				if err != nil {
					sqlite.Close()
					return nil, err
				}
				if err := sched.Start(context.Background()); err != nil {
					sqlite.Close()
					return nil, err
				}
				closers = append(closers, func() error {
					sched.Stop()
					return nil
				})
			}
		default:
			store = journal.NewMemoryStore(0)
		}

		recorder = journal.NewRecorder(store, journal.RecorderConfig{BufferSize: cfg.Journal.BufferSize})
		closers = append(closers, store.Close, recorder.Close)
	}

	rt, err := New(Options{
		Registry:  reg,
		Estimator: estimator,
		Transport: transport.Config{PropagateTrace: cfg.Tracing.Enabled},
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.Limits.RequestsPerMinute,
			TokensPerMinute:   cfg.Limits.TokensPerMinute,
		},
		MaxConcurrent: cfg.Limits.MaxConcurrent,
		Breaker: breaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			CooldownPeriod:   cfg.Breaker.Cooldown,
		},
		Retry: retry.Policy{
			Retries:        cfg.Retry.Retries,
			BackoffFactor:  cfg.Retry.BackoffFactor,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
			Timeout:        cfg.Retry.Timeout,
		},
		Metrics: collector,
		Tracer:  tracer,
		Journal: recorder,
	})
	if err != nil {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	if cfg.Catalog.Enabled {
		store, err := catalog.NewStore(cfg.Catalog.Path)
		if err != nil {
			rt.closers = closers
			rt.Close()
			return nil, err
		}
		rt.catalog = catalog.New(catalog.Options{
			Registry: reg,
			Store:    store,
			TTL:      cfg.Catalog.TTL,
		})
		closers = append(closers, rt.catalog.Close)

		if cfg.Catalog.RefreshSchedule != "" {
			refresher, err := catalog.NewRefresher(rt.catalog, cfg.Catalog.RefreshSchedule)
			if err != nil {
				rt.closers = closers
				rt.Close()
				return nil, err
			}
			if err := refresher.Start(context.Background()); err != nil {
				rt.closers = closers
				rt.Close()
				return nil, err
			}
			closers = append(closers, func() error {
				refresher.Stop()
				return nil
			})
		}
	}

	rt.closers = closers
	return rt, nil
}

// WatchConfig hot-reloads the configuration file behind a running runtime:
// each successful reload re-applies provider partials to the registry and
// replaces the limiter when the admission budgets changed. Breaker and
// retry tuning are constructor-time and not reloaded. The watcher stops
// when the runtime closes.
func (rt *Runtime) WatchConfig(path string) error {
	watcher, err := config.NewWatcher(config.WatcherOptions{
		Path:   path,
		Logger: rt.logger,
		OnReload: func(cfg *config.Config) {
			if err := cfg.Apply(rt.Registry()); err != nil {
				rt.logger.Error("config reload: provider apply failed", "error", err)
				return
			}
			rt.limiterFor(&ratelimit.Config{
				RequestsPerMinute: cfg.Limits.RequestsPerMinute,
				TokensPerMinute:   cfg.Limits.TokensPerMinute,
			})
		},
	})
	if err != nil {
		return err
	}

	started := make(chan struct{})
	go func() {
		close(started)
		if err := watcher.Watch(context.Background()); err != nil {
			rt.logger.Error("config watcher exited", "error", err)
		}
	}()
	<-started

	rt.closers = append(rt.closers, watcher.Stop)
	return nil
}
