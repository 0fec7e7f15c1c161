package loyalty

import (
	"context"
	"log/slog"
	"time"
)

// Worker periodically runs ledger reconciliation across all accounts. It is
// the follow-up responsibility for the accrual contract: any account whose
// counter drifted from its ledger is repaired and reported.
type Worker struct {
	svc      Service
	log      *slog.Logger
	interval time.Duration
}

func NewWorker(svc Service, log *slog.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{svc: svc, log: log, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			repaired, err := w.svc.ReconcileAll(ctx)
			if err != nil {
				w.log.Error("loyalty reconciliation failed", "err", err)
				continue
			}
			if repaired > 0 {
				w.log.Warn("loyalty balances repaired", "accounts", repaired)
			}
		}
	}
}
