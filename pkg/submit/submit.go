package submit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/store"
)

// ErrInvalidRequest wraps submission validation failures. They occur
// before any job record exists.
var ErrInvalidRequest = errors.New("invalid submission request")

// Tuning carries the optional archive tuning parameters. A nil field was
// not supplied and is omitted from the record so the worker applies its
// own default.
type Tuning struct {
	ArchiveSize                 *int64
	ArchiveDictionariesDataSize *int64
	SegmentSize                 *int64
	EncodedFileSize             *int64
	NumArchives                 *int64
}

// Request describes one compression job submission.
type Request struct {
	// Paths are explicit input paths. Mutually exclusive with
	// InputListPath.
	Paths []string
	// InputListPath names a file listing input paths, one per line.
	InputListPath string
	// PathPrefixToRemove is stripped from each compressed file/dir.
	PathPrefixToRemove string
	Tuning             Tuning
}

// Validate checks the request without touching the filesystem or store.
func (r Request) Validate() error {
	if len(r.Paths) == 0 && r.InputListPath == "" {
		return fmt.Errorf("%w: no paths specified", ErrInvalidRequest)
	}
	if len(r.Paths) > 0 && r.InputListPath != "" {
		return fmt.Errorf("%w: paths cannot be specified on the command line and through a file", ErrInvalidRequest)
	}
	for name, value := range map[string]*int64{
		"target-archive-size":                   r.Tuning.ArchiveSize,
		"target-archive-dictionaries-data-size": r.Tuning.ArchiveDictionariesDataSize,
		"target-segment-size":                   r.Tuning.SegmentSize,
		"target-encoded-file-size":              r.Tuning.EncodedFileSize,
		"target-num-archives":                   r.Tuning.NumArchives,
	} {
		if value != nil && *value <= 0 {
			return fmt.Errorf("%w: %s must be greater than 0", ErrInvalidRequest, name)
		}
	}
	return nil
}

// Submitter builds and persists job records.
type Submitter struct {
	store store.JobStore
}

// NewSubmitter creates a Submitter backed by the given store.
func NewSubmitter(st store.JobStore) *Submitter {
	return &Submitter{store: st}
}

// Submit validates the request, builds the job record, and persists it.
// Returns the store-assigned job id. Exactly one document is created per
// invocation: a failed create is never retried, since a blind retry could
// submit a duplicate job.
func (s *Submitter) Submit(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	record, err := req.buildRecord()
	if err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, record)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	return id, nil
}

func (r Request) buildRecord() (*models.JobRecord, error) {
	paths, err := r.resolvePaths()
	if err != nil {
		return nil, err
	}
	record := &models.JobRecord{
		InputType: models.InputTypeFS,
		InputConfig: models.InputConfig{
			Paths:              paths,
			PathPrefixToRemove: r.PathPrefixToRemove,
		},
		OutputConfig: models.OutputConfig{
			TargetArchiveSize:                 r.Tuning.ArchiveSize,
			TargetArchiveDictionariesDataSize: r.Tuning.ArchiveDictionariesDataSize,
			TargetSegmentSize:                 r.Tuning.SegmentSize,
			TargetEncodedFileSize:             r.Tuning.EncodedFileSize,
			TargetNumArchives:                 r.Tuning.NumArchives,
		},
		Status:              models.JobStatusPending,
		SubmissionTimestamp: models.NowMillis(),
	}
	return record, nil
}

func (r Request) resolvePaths() ([]string, error) {
	if r.InputListPath != "" {
		return ReadInputList(r.InputListPath)
	}

	paths := make([]string, 0, len(r.Paths))
	for _, p := range r.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			// Skip empty paths
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve path %q: %v", ErrInvalidRequest, p, err)
		}
		paths = append(paths, abs)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths specified", ErrInvalidRequest)
	}
	return paths, nil
}

// ReadInputList reads input paths from a file, one per line, skipping
// blank lines.
func ReadInputList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read input list: %v", ErrInvalidRequest, err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read input list: %v", ErrInvalidRequest, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: input list %s contains no paths", ErrInvalidRequest, path)
	}
	return paths, nil
}
