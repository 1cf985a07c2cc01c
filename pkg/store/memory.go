package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/logpress/logpress/pkg/models"
)

// MemoryStore is an in-memory JobStore used by tests. The worker-side
// mutator methods stand in for the external worker process advancing a
// job's status and progress fields.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[string]*models.JobRecord
	failReads int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.JobRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, record *models.JobRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	id := record.ID.Hex()
	if _, exists := s.jobs[id]; exists {
		return "", fmt.Errorf("job %s already exists", id)
	}
	clone := *record
	clone.InputConfig.Paths = append([]string(nil), record.InputConfig.Paths...)
	s.jobs[id] = &clone
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeFailRead(); err != nil {
		return nil, err
	}
	record, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	clone.InputConfig.Paths = append([]string(nil), record.InputConfig.Paths...)
	return &clone, nil
}

func (s *MemoryStore) FindProgress(ctx context.Context, id string) (*models.JobProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeFailRead(); err != nil {
		return nil, err
	}
	record, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.JobProgress{
		Status:               string(record.Status),
		BeginTimestamp:       record.BeginTimestamp,
		EndTimestamp:         record.EndTimestamp,
		LogsUncompressedSize: record.LogsUncompressedSize,
		LogsCompressedSize:   record.LogsCompressedSize,
		Errors:               record.Errors,
	}, nil
}

func (s *MemoryStore) UpdateStatusIf(ctx context.Context, id string, expected, next models.JobStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.jobs[id]
	if !ok || record.Status != expected {
		return false, nil
	}
	record.Status = next
	return true, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// FailNextReads makes the next n reads fail with a transient error, to
// simulate a store outage.
func (s *MemoryStore) FailNextReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = n
}

func (s *MemoryStore) maybeFailRead() error {
	if s.failReads > 0 {
		s.failReads--
		return fmt.Errorf("connection reset by peer")
	}
	return nil
}

// Worker-side mutators. Production code never calls these; they exist so
// tests can play the worker's half of the protocol.

func (s *MemoryStore) SetStatus(id string, status models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.jobs[id]; ok {
		record.Status = status
	}
}

func (s *MemoryStore) SetProgress(id string, uncompressed, compressed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.jobs[id]; ok {
		record.LogsUncompressedSize = uncompressed
		record.LogsCompressedSize = compressed
	}
}

func (s *MemoryStore) SetTimestamps(id string, begin, end int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.jobs[id]; ok {
		record.BeginTimestamp = models.NewEpochMillis(begin)
		record.EndTimestamp = models.NewEpochMillis(end)
	}
}

func (s *MemoryStore) SetErrors(id string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.jobs[id]; ok {
		record.Errors = v
	}
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}
