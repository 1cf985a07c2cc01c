package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobStatus represents the status of a compression job
//
// NOTE: These values are persisted in the shared job document and are part
// of the wire contract with the worker.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"    // Job submitted, not yet picked up by a worker
	JobStatusRunning    JobStatus = "running"    // Worker is compressing
	JobStatusDone       JobStatus = "done"       // Compression finished
	JobStatusFailed     JobStatus = "failed"     // Compression failed permanently
	JobStatusCancelling JobStatus = "cancelling" // Client requested cancellation, worker has not acknowledged
	JobStatusCancelled  JobStatus = "cancelled"  // Worker acknowledged cancellation
)

// InputTypeFS is the only input type this client submits.
const InputTypeFS = "fs"

// UnknownStatusError indicates a status string outside the defined state
// machine, i.e. a protocol mismatch between client and worker.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown job status %q", e.Value)
}

// ParseJobStatus decodes a raw status string read from the store. Values
// outside the six defined states fail with UnknownStatusError; they are
// never mapped to a default state.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusRunning, JobStatusDone,
		JobStatusFailed, JobStatusCancelling, JobStatusCancelled:
		return JobStatus(s), nil
	default:
		return "", &UnknownStatusError{Value: s}
	}
}

// validTransitions maps from-state to allowed to-states
var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusPending: {
		JobStatusRunning:    true, // Pending → Running (worker picks up job)
		JobStatusCancelling: true, // Pending → Cancelling (client requests cancellation)
	},
	JobStatusRunning: {
		JobStatusDone:   true, // Running → Done (compression finished)
		JobStatusFailed: true, // Running → Failed (compression failed)
	},
	JobStatusCancelling: {
		JobStatusCancelled: true, // Cancelling → Cancelled (worker acknowledges)
	},
	// Terminal states (no transitions allowed)
	JobStatusDone:      {},
	JobStatusFailed:    {},
	JobStatusCancelled: {},
}

// ValidateTransition checks if a state transition is valid
func ValidateTransition(from, to JobStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalState returns true if the state is terminal (no further transitions)
func IsTerminalState(state JobStatus) bool {
	return state == JobStatusDone || state == JobStatusFailed || state == JobStatusCancelled
}

// InputConfig declares what gets compressed. Set once at submission and
// immutable thereafter.
type InputConfig struct {
	Paths              []string `bson:"paths" json:"paths"`
	PathPrefixToRemove string   `bson:"path_prefix_to_remove,omitempty" json:"path_prefix_to_remove,omitempty"`
}

// OutputConfig carries the optional archive tuning parameters. Only
// explicitly supplied parameters are persisted; absent fields are omitted
// from the document so the worker applies its own defaults.
type OutputConfig struct {
	TargetArchiveSize                 *int64 `bson:"target_archive_size,omitempty" json:"target_archive_size,omitempty"`
	TargetArchiveDictionariesDataSize *int64 `bson:"target_archive_dictionaries_data_size,omitempty" json:"target_archive_dictionaries_data_size,omitempty"`
	TargetSegmentSize                 *int64 `bson:"target_segment_size,omitempty" json:"target_segment_size,omitempty"`
	TargetEncodedFileSize             *int64 `bson:"target_encoded_file_size,omitempty" json:"target_encoded_file_size,omitempty"`
	TargetNumArchives                 *int64 `bson:"target_num_archives,omitempty" json:"target_num_archives,omitempty"`
}

// JobRecord is the shared document representing one compression job.
//
// The client writes the full record once at submission. After that the
// worker owns status (except the conditional pending→cancelling update),
// both size counters, both execution timestamps, and the errors flag.
type JobRecord struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InputType            string             `bson:"input_type" json:"input_type"`
	InputConfig          InputConfig        `bson:"input_config" json:"input_config"`
	OutputConfig         OutputConfig       `bson:"output_config" json:"output_config"`
	Status               JobStatus          `bson:"status" json:"status"`
	SubmissionTimestamp  int64              `bson:"submission_timestamp" json:"submission_timestamp"`
	BeginTimestamp       EpochMillis        `bson:"begin_timestamp,omitempty" json:"begin_timestamp,omitempty"`
	EndTimestamp         EpochMillis        `bson:"end_timestamp,omitempty" json:"end_timestamp,omitempty"`
	LogsUncompressedSize int64              `bson:"logs_uncompressed_size" json:"logs_uncompressed_size"`
	LogsCompressedSize   int64              `bson:"logs_compressed_size" json:"logs_compressed_size"`
	Errors               bool               `bson:"errors" json:"errors"`
}

// JobProgress is the projection the monitor polls: status plus the
// worker-owned progress fields, never the full document.
type JobProgress struct {
	Status               string      `bson:"status" json:"status"`
	BeginTimestamp       EpochMillis `bson:"begin_timestamp,omitempty" json:"begin_timestamp,omitempty"`
	EndTimestamp         EpochMillis `bson:"end_timestamp,omitempty" json:"end_timestamp,omitempty"`
	LogsUncompressedSize int64       `bson:"logs_uncompressed_size" json:"logs_uncompressed_size"`
	LogsCompressedSize   int64       `bson:"logs_compressed_size" json:"logs_compressed_size"`
	Errors               bool        `bson:"errors" json:"errors"`
}

// RuntimeSeconds returns end-begin normalized to seconds. The second
// return is false when either timestamp is absent.
func (p *JobProgress) RuntimeSeconds() (float64, bool) {
	if !p.BeginTimestamp.Valid || !p.EndTimestamp.Valid {
		return 0, false
	}
	return float64(p.EndTimestamp.Millis-p.BeginTimestamp.Millis) / 1000.0, true
}

// HumanJobID is the display form of a job identifier.
func HumanJobID(id string) string {
	return "job_" + id
}
