package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ReconcileFunc performs one drift repair pass and reports what changed.
type ReconcileFunc func(ctx context.Context) (added, removed []uint32, err error)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Reconciler periodically repairs drift between the window registry and the
// host, covering window events the host failed to deliver.
type Reconciler struct {
	interval  time.Duration
	clock     clockwork.Clock
	reconcile ReconcileFunc
	logger    *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, reconcile ReconcileFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval:  interval,
		clock:     clock,
		reconcile: reconcile,
		logger:    logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.Chan():
			r.ReconcileNow(ctx)
		}
	}
}

// ReconcileNow performs a single reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	passCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	added, removed, err := r.reconcile(passCtx)
	if err != nil {
		r.logger.Warn("reconciler: pass failed", "error", err)
		return
	}
	if len(added) > 0 || len(removed) > 0 {
		r.logger.Info("reconciler: drift repaired", "added", added, "removed", removed)
	}
}
