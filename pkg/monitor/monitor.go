package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/retry"
	"github.com/logpress/logpress/pkg/store"
)

// ErrJobDisappeared indicates the monitored record vanished mid-wait.
// The worker is the sole owner of the record's existence, so this is
// unrecoverable from the client's side.
var ErrJobDisappeared = errors.New("compression job disappeared")

// Reporter receives the monitor's user-facing progress and outcome lines.
// The process wires a console logger to it; tests capture the lines.
type Reporter interface {
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)
}

// Outcome classifies how a wait ended.
type Outcome int

const (
	// OutcomeDone means the job finished; check Result.Errors for a
	// lossy completion.
	OutcomeDone Outcome = iota + 1
	// OutcomeFailed means the worker reported permanent failure.
	OutcomeFailed
	// OutcomeCancelled means the worker acknowledged cancellation.
	OutcomeCancelled
	// OutcomeInterrupted means the wait was interrupted before a
	// terminal status was observed.
	OutcomeInterrupted
	// OutcomeAlreadyRunning means cancellation was requested after the
	// worker started; the job continues unattended.
	OutcomeAlreadyRunning
)

// Result summarizes the terminal observation of a monitored job.
type Result struct {
	Outcome          Outcome
	UncompressedSize int64
	CompressedSize   int64
	RuntimeSeconds   float64
	BytesPerSecond   float64
	Errors           bool
}

// Monitor polls a job's progress projection at a fixed cadence until a
// terminal status is observed, the record disappears, or the context is
// cancelled.
type Monitor struct {
	store    store.JobStore
	reporter Reporter
	interval time.Duration
	retry    retry.Policy
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the default 1s polling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithRetryPolicy overrides the backoff policy for transient poll reads.
func WithRetryPolicy(p retry.Policy) Option {
	return func(m *Monitor) {
		m.retry = p
	}
}

// New creates a Monitor with a 1 second polling interval.
func New(st store.JobStore, reporter Reporter, opts ...Option) *Monitor {
	m := &Monitor{
		store:    st,
		reporter: reporter,
		interval: time.Second,
		retry:    retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait polls until the job reaches a terminal status. Terminal job
// outcomes (failed, cancelled, done-with-errors) are reported through the
// Reporter and returned as Results, not errors; the error return covers
// disappearance, protocol mismatches, and store failures. Context
// cancellation yields OutcomeInterrupted so the caller can hand control
// to the cancellation coordinator.
func (m *Monitor) Wait(ctx context.Context, jobID string) (Result, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var lastUncompressed int64
	for {
		select {
		case <-ctx.Done():
			return Result{Outcome: OutcomeInterrupted}, nil
		case <-ticker.C:
		}

		progress, err := m.poll(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			m.reporter.Error("Compression job disappeared.")
			return Result{}, ErrJobDisappeared
		}
		if err != nil {
			if ctx.Err() != nil {
				return Result{Outcome: OutcomeInterrupted}, nil
			}
			m.reporter.Error("Job store unreachable.", map[string]any{"error": err.Error()})
			return Result{}, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		// Report progress. Only a strict increase produces a line; an
		// unchanged or regressed counter is a late/duplicate read, not
		// an error.
		if progress.LogsUncompressedSize > lastUncompressed {
			ratio := float64(progress.LogsCompressedSize) / float64(progress.LogsUncompressedSize) * 100
			m.reporter.Info(fmt.Sprintf("Compressed %s into %s (%.2f%%).",
				humanize.IBytes(uint64(progress.LogsUncompressedSize)),
				humanize.IBytes(uint64(progress.LogsCompressedSize)),
				ratio))
			lastUncompressed = progress.LogsUncompressedSize
		}

		status, err := models.ParseJobStatus(progress.Status)
		if err != nil {
			m.reporter.Error(fmt.Sprintf("Unknown status %q for %s.",
				progress.Status, models.HumanJobID(jobID)))
			return Result{}, err
		}

		switch status {
		case models.JobStatusFailed:
			m.reporter.Error("Compression failed.")
			return m.result(OutcomeFailed, progress), nil
		case models.JobStatusCancelled:
			m.reporter.Error("Compression cancelled.")
			return m.result(OutcomeCancelled, progress), nil
		case models.JobStatusDone:
			return m.finish(progress), nil
		default:
			// pending, running, cancelling: keep polling
		}
	}
}

// poll fetches the progress projection, retrying transient failures. A
// missing record is never retried; disappearance is immediately fatal.
func (m *Monitor) poll(ctx context.Context, jobID string) (*models.JobProgress, error) {
	var progress *models.JobProgress
	err := retry.Do(ctx, m.retry, func() error {
		var err error
		progress, err = m.store.FindProgress(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (m *Monitor) finish(progress *models.JobProgress) Result {
	res := m.result(OutcomeDone, progress)
	if secs, ok := progress.RuntimeSeconds(); ok && secs > 0 {
		res.RuntimeSeconds = secs
		res.BytesPerSecond = float64(progress.LogsUncompressedSize) / secs
		m.reporter.Info(fmt.Sprintf("Compression finished. Runtime: %.2fs. Speed: %s/s.",
			secs, humanize.IBytes(uint64(res.BytesPerSecond))))
	} else {
		m.reporter.Info("Compression finished.")
	}
	if progress.Errors {
		m.reporter.Warn("Errors occurred during compression.")
	}
	return res
}

func (m *Monitor) result(outcome Outcome, progress *models.JobProgress) Result {
	return Result{
		Outcome:          outcome,
		UncompressedSize: progress.LogsUncompressedSize,
		CompressedSize:   progress.LogsCompressedSize,
		Errors:           progress.Errors,
	}
}
