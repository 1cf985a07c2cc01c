package store

import (
	"context"
	"errors"
	"time"

	"github.com/logpress/logpress/pkg/models"
)

// ErrNotFound is returned when a job record does not exist in the store.
var ErrNotFound = errors.New("job not found")

// JobStore is the client's view of the shared job collection: create a
// record, read a progress projection, read the full record, and perform
// the one conditional status update the client is allowed to make. The
// store server and the worker own everything else about a record's
// lifetime.
type JobStore interface {
	// Create persists a new job record and returns the assigned id.
	// Callers must not retry a failed create; a blind retry could submit
	// a duplicate job.
	Create(ctx context.Context, record *models.JobRecord) (string, error)

	// Get reads the full job record.
	Get(ctx context.Context, id string) (*models.JobRecord, error)

	// FindProgress reads the status/progress projection of a record.
	// Returns ErrNotFound when the record has disappeared.
	FindProgress(ctx context.Context, id string) (*models.JobProgress, error)

	// UpdateStatusIf atomically sets status to next only if the record's
	// current status equals expected (compare-and-set at the store, not a
	// client-side read-then-write). Returns false when no record matched.
	UpdateStatusIf(ctx context.Context, id string, expected, next models.JobStatus) (bool, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config holds job store connection parameters.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// DefaultCollection is the collection compression workers consume from.
const DefaultCollection = "cjobs"
