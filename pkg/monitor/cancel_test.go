package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/store"
)

func TestCancel_PendingJob(t *testing.T) {
	st := store.NewMemoryStore()
	id := submitTestJob(t, st)

	mon, reporter := newTestMonitor(st)
	coord := NewCoordinator(st, reporter, mon)

	// The worker acknowledges the cancellation request shortly after it
	// lands.
	go func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			record, err := st.Get(context.Background(), id)
			if err == nil && record.Status == models.JobStatusCancelling {
				st.SetStatus(id, models.JobStatusCancelled)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	res, err := coord.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Errorf("Expected OutcomeCancelled, got %v", res.Outcome)
	}
	if !reporter.contains("INFO: Trying to cancel compression job.") {
		t.Errorf("Expected a cancellation request line, got %v", reporter.all())
	}
	if !reporter.contains("ERROR: Compression cancelled.") {
		t.Errorf("Expected an acknowledgement line, got %v", reporter.all())
	}
}

func TestCancel_AlreadyRunning(t *testing.T) {
	st := store.NewMemoryStore()
	id := submitTestJob(t, st)
	st.SetStatus(id, models.JobStatusRunning)

	mon, reporter := newTestMonitor(st)
	coord := NewCoordinator(st, reporter, mon)

	res, err := coord.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if res.Outcome != OutcomeAlreadyRunning {
		t.Errorf("Expected OutcomeAlreadyRunning, got %v", res.Outcome)
	}
	if !reporter.contains("ERROR: Compression job already started and will continue to run in the background.") {
		t.Errorf("Expected an already-running line, got %v", reporter.all())
	}

	record, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != models.JobStatusRunning {
		t.Errorf("Status of a running job must not change, got %s", record.Status)
	}
}

func TestCancel_RaceWithWorkerCompletion(t *testing.T) {
	// Cancellation requested while pending, but the worker finishes the
	// job before acknowledging. Done is an accepted terminal outcome for a
	// cancellation wait.
	st := store.NewMemoryStore()
	id := submitTestJob(t, st)

	mon, reporter := newTestMonitor(st)
	coord := NewCoordinator(st, reporter, mon)

	go func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			record, err := st.Get(context.Background(), id)
			if err == nil && record.Status == models.JobStatusCancelling {
				st.SetStatus(id, models.JobStatusDone)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	res, err := coord.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if res.Outcome != OutcomeDone {
		t.Errorf("Expected OutcomeDone, got %v", res.Outcome)
	}
	if !reporter.contains("Compression finished") {
		t.Errorf("Expected a finish line, got %v", reporter.all())
	}
}
