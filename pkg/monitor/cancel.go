package monitor

import (
	"context"
	"fmt"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/store"
)

// Coordinator requests cooperative cancellation of a submitted job after
// the waiting client is interrupted.
//
// Cancellation is asymmetric: only a still-pending job can be cancelled.
// The transition is a single conditional update at the store, not a
// client-side read-then-write, so it cannot race the worker's start
// transition.
type Coordinator struct {
	store    store.JobStore
	reporter Reporter
	monitor  *Monitor
}

// NewCoordinator creates a Coordinator sharing the monitor's wait loop.
func NewCoordinator(st store.JobStore, reporter Reporter, m *Monitor) *Coordinator {
	return &Coordinator{store: st, reporter: reporter, monitor: m}
}

// Cancel attempts the conditional pending→cancelling transition. When the
// job has already left pending it continues unattended; that is an
// accepted outcome, not a failure. When the transition wins the race, the
// wait loop is re-entered until the worker acknowledges with cancelled
// (or finishes with done first).
//
// ctx must be live; the caller passes a fresh context since the original
// wait context was cancelled by the interrupt.
func (c *Coordinator) Cancel(ctx context.Context, jobID string) (Result, error) {
	c.reporter.Info("Trying to cancel compression job.")

	matched, err := c.store.UpdateStatusIf(ctx, jobID,
		models.JobStatusPending, models.JobStatusCancelling)
	if err != nil {
		return Result{}, fmt.Errorf("request cancellation: %w", err)
	}
	if !matched {
		c.reporter.Error("Compression job already started and will continue to run in the background.")
		return Result{Outcome: OutcomeAlreadyRunning}, nil
	}

	return c.monitor.Wait(ctx, jobID)
}
