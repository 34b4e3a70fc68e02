package app

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/config"
	"quorum/internal/logger"
	"quorum/internal/profile"
	"quorum/internal/scheduler"
	"quorum/internal/score"
	"quorum/internal/store"
	httpapi "quorum/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App wires the scoring service, the HTTP surface and the optional periodic
// scan into one runnable unit.
type App struct {
	cfg      *config.Config
	profiles *profile.Loader
	service  *score.Service
	server   *httpapi.Server
	recorder *store.Recorder
	history  *store.History
}

// NewApp builds the application object without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Run(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.cfg.Scan.Enabled {
		interval, err := time.ParseDuration(a.cfg.Scan.Interval)
		if err != nil {
			return fmt.Errorf("invalid scan interval %q: %w", a.cfg.Scan.Interval, err)
		}
		group.Go(func() error {
			sched := scheduler.NewIntervalScheduler(ctx, interval)
			sched.RunImmediately = true
			sched.Start(func() { a.runScan(ctx) })
			return nil
		})
	}

	return group.Wait()
}

func (a *App) runScan(ctx context.Context) {
	summary, ranked, err := a.service.Scan(ctx, a.cfg.Scan.Universe, a.cfg.Scan.Profile)
	if err != nil {
		logger.Errorf("scheduled scan failed: %v", err)
		return
	}
	logger.Infof("scan %s done: %d/%d succeeded, %d ranked, %.1f/s",
		summary.RunID, summary.Succeeded, summary.Total, len(ranked), summary.Throughput)
}

func (a *App) close() {
	if a.profiles != nil {
		if err := a.profiles.Close(); err != nil {
			logger.Warnf("closing profile loader: %v", err)
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			logger.Warnf("closing store: %v", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Warnf("closing store reader: %v", err)
		}
	}
}
