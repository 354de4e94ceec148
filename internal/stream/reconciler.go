package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler periodically stops transcoders whose camera has no active job.
type Reconciler struct {
	supervisor *Supervisor
	jobs       OpenJobLookup
	interval   time.Duration
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates a Reconciler. Call Start to begin sweeping.
func NewReconciler(supervisor *Supervisor, jobs OpenJobLookup, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		supervisor: supervisor,
		jobs:       jobs,
		interval:   interval,
		logger:     logger,
	}
}

// Start launches the sweep loop. Call Stop to wait for it to finish.
func (r *Reconciler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.logger.Info("Starting stream reconciler", zap.Duration("interval", r.interval))

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("Stream reconciler stopped")
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Reconciler panic recovered", zap.Any("panic", rec))
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	if err := r.supervisor.Reconcile(sweepCtx, r.jobs); err != nil {
		r.logger.Error("Stream reconcile failed", zap.Error(err))
	}
}
