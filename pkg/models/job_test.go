package models

import (
	"errors"
	"testing"
)

func TestParseJobStatus(t *testing.T) {
	valid := []string{"pending", "running", "done", "failed", "cancelling", "cancelled"}
	for _, s := range valid {
		status, err := ParseJobStatus(s)
		if err != nil {
			t.Errorf("ParseJobStatus(%q) returned error: %v", s, err)
		}
		if string(status) != s {
			t.Errorf("ParseJobStatus(%q) = %q", s, status)
		}
	}
}

func TestParseJobStatus_Unknown(t *testing.T) {
	for _, s := range []string{"", "PENDING", "complete", "paused"} {
		_, err := ParseJobStatus(s)
		if err == nil {
			t.Errorf("ParseJobStatus(%q) should fail", s)
			continue
		}
		var unknown *UnknownStatusError
		if !errors.As(err, &unknown) {
			t.Errorf("ParseJobStatus(%q) error type = %T", s, err)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	allowed := []struct{ from, to JobStatus }{
		{JobStatusPending, JobStatusRunning},
		{JobStatusPending, JobStatusCancelling},
		{JobStatusRunning, JobStatusDone},
		{JobStatusRunning, JobStatusFailed},
		{JobStatusCancelling, JobStatusCancelled},
	}
	for _, tr := range allowed {
		if err := ValidateTransition(tr.from, tr.to); err != nil {
			t.Errorf("Transition %s -> %s should be valid: %v", tr.from, tr.to, err)
		}
	}

	forbidden := []struct{ from, to JobStatus }{
		{JobStatusPending, JobStatusDone},
		{JobStatusPending, JobStatusCancelled},
		{JobStatusRunning, JobStatusCancelling},
		{JobStatusDone, JobStatusRunning},
		{JobStatusFailed, JobStatusPending},
		{JobStatusCancelled, JobStatusCancelling},
	}
	for _, tr := range forbidden {
		if err := ValidateTransition(tr.from, tr.to); err == nil {
			t.Errorf("Transition %s -> %s should be invalid", tr.from, tr.to)
		}
	}
}

func TestIsTerminalState(t *testing.T) {
	terminal := []JobStatus{JobStatusDone, JobStatusFailed, JobStatusCancelled}
	for _, s := range terminal {
		if !IsTerminalState(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	active := []JobStatus{JobStatusPending, JobStatusRunning, JobStatusCancelling}
	for _, s := range active {
		if IsTerminalState(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestRuntimeSeconds(t *testing.T) {
	p := &JobProgress{
		BeginTimestamp: NewEpochMillis(1000),
		EndTimestamp:   NewEpochMillis(3000),
	}
	secs, ok := p.RuntimeSeconds()
	if !ok {
		t.Fatal("RuntimeSeconds should be available")
	}
	if secs != 2.0 {
		t.Errorf("Expected runtime 2.0s, got %v", secs)
	}
}

func TestRuntimeSeconds_MissingTimestamps(t *testing.T) {
	p := &JobProgress{BeginTimestamp: NewEpochMillis(1000)}
	if _, ok := p.RuntimeSeconds(); ok {
		t.Error("RuntimeSeconds should not be available without end_timestamp")
	}
	p = &JobProgress{}
	if _, ok := p.RuntimeSeconds(); ok {
		t.Error("RuntimeSeconds should not be available without timestamps")
	}
}
