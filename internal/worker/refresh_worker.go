// Package worker rebuilds the Reports sheet in the background: on startup,
// on every refresh event from the broker and on a fixed schedule.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mosques/internal/amqp"
	applog "mosques/internal/log"
	"mosques/internal/report"
	"mosques/internal/services"
)

// Refresher recomputes the reports. *services.ReportService implements it.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (report.Snapshot, error)
}

// Consumer delivers refresh events. *amqp.Client implements it.
type Consumer interface {
	ConsumeReportRefresh(ctx context.Context, handler func(context.Context, *amqp.ReportRefreshMessage) error) error
}

type RefreshWorker struct {
	reports  Refresher
	interval time.Duration
	logger   *applog.Logger
	now      func() time.Time

	// coveredUntil is the start time of the last successful rebuild.
	// Events older than it are already reflected in the sheet.
	mu           sync.Mutex
	coveredUntil time.Time
}

// NewRefreshWorker returns a worker that also refreshes every interval.
// An interval of zero disables the schedule.
func NewRefreshWorker(reports Refresher, interval time.Duration, logger *applog.Logger) *RefreshWorker {
	return &RefreshWorker{
		reports:  reports,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
		now:      time.Now,
	}
}

func (w *RefreshWorker) refresh(ctx context.Context, trigger string) error {
	started := w.now()
	snap, err := w.reports.Refresh(ctx, trigger)
	if err != nil {
		w.logger.ErrorContext(ctx, "Report refresh failed", "trigger", trigger, applog.FieldError, err)
		return err
	}

	w.mu.Lock()
	if started.After(w.coveredUntil) {
		w.coveredUntil = started
	}
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "Report refresh completed",
		"trigger", trigger, "receipts", snap.Summary.TotalReceipts)
	return nil
}

// HandleRefreshMessage rebuilds the reports for one event. Events published
// before the last successful rebuild started are already covered and are
// skipped. A failed rebuild returns the error so the event is redelivered.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.ReportRefreshMessage) error {
	w.mu.Lock()
	covered := !w.coveredUntil.IsZero() && msg.Timestamp.Before(w.coveredUntil)
	w.mu.Unlock()
	if covered {
		w.logger.DebugContext(ctx, "Refresh event already covered",
			"id", msg.ID, "reason", msg.Reason)
		return nil
	}
	w.logger.InfoContext(ctx, "Processing refresh event",
		"id", msg.ID, "reason", msg.Reason, "actor", msg.Actor)
	return w.refresh(ctx, services.TriggerEvent)
}

// StartupRefresh rebuilds once so the sheet reflects rows written while the
// worker was down.
func (w *RefreshWorker) StartupRefresh(ctx context.Context) error {
	return w.refresh(ctx, services.TriggerStartup)
}

// Run refreshes at startup, then consumes events (when consumer is not nil)
// and runs the schedule until ctx is cancelled. Startup and scheduled
// failures are logged and do not stop the worker.
func (w *RefreshWorker) Run(ctx context.Context, consumer Consumer) error {
	_ = w.StartupRefresh(ctx)

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeReportRefresh(gctx, w.HandleRefreshMessage)
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					_ = w.refresh(gctx, services.TriggerSchedule)
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}
