package submit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/store"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidate(t *testing.T) {
	req := Request{Paths: []string{"/var/log/app"}}
	if err := req.Validate(); err != nil {
		t.Errorf("Valid request rejected: %v", err)
	}
}

func TestValidate_NoPaths(t *testing.T) {
	req := Request{}
	if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestValidate_BothPathSources(t *testing.T) {
	req := Request{
		Paths:         []string{"/var/log/app"},
		InputListPath: "paths.txt",
	}
	if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestValidate_TuningBounds(t *testing.T) {
	for _, v := range []int64{0, -1} {
		req := Request{
			Paths:  []string{"/var/log/app"},
			Tuning: Tuning{SegmentSize: int64Ptr(v)},
		}
		if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Segment size %d should be rejected, got %v", v, err)
		}
	}

	req := Request{
		Paths:  []string{"/var/log/app"},
		Tuning: Tuning{SegmentSize: int64Ptr(1)},
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Segment size 1 should be accepted: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	before := models.NowMillis()
	id, err := NewSubmitter(st).Submit(ctx, Request{Paths: []string{"/var/log/app", "/var/log/db"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	after := models.NowMillis()

	record, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != models.JobStatusPending {
		t.Errorf("Expected status pending, got %s", record.Status)
	}
	if record.InputType != models.InputTypeFS {
		t.Errorf("Expected input type fs, got %s", record.InputType)
	}
	if len(record.InputConfig.Paths) != 2 {
		t.Errorf("Expected 2 paths, got %v", record.InputConfig.Paths)
	}
	if record.SubmissionTimestamp < before || record.SubmissionTimestamp > after {
		t.Errorf("Submission timestamp %d outside [%d, %d]", record.SubmissionTimestamp, before, after)
	}
	if record.LogsUncompressedSize != 0 || record.LogsCompressedSize != 0 {
		t.Errorf("Counters should start at zero, got %d / %d", record.LogsUncompressedSize, record.LogsCompressedSize)
	}
	if record.Errors {
		t.Error("Errors flag should start false")
	}
	if record.BeginTimestamp.Valid || record.EndTimestamp.Valid {
		t.Error("Execution timestamps should be absent at submission")
	}

	oc := record.OutputConfig
	if oc.TargetArchiveSize != nil || oc.TargetSegmentSize != nil || oc.TargetNumArchives != nil {
		t.Errorf("Unset tuning should be omitted, got %+v", oc)
	}
}

func TestSubmit_Tuning(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	req := Request{
		Paths:              []string{"/var/log/app"},
		PathPrefixToRemove: "/var/log",
		Tuning: Tuning{
			ArchiveSize: int64Ptr(268435456),
			NumArchives: int64Ptr(4),
		},
	}
	id, err := NewSubmitter(st).Submit(ctx, req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	record, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.InputConfig.PathPrefixToRemove != "/var/log" {
		t.Errorf("Expected prefix /var/log, got %q", record.InputConfig.PathPrefixToRemove)
	}
	oc := record.OutputConfig
	if oc.TargetArchiveSize == nil || *oc.TargetArchiveSize != 268435456 {
		t.Errorf("Unexpected target archive size: %v", oc.TargetArchiveSize)
	}
	if oc.TargetNumArchives == nil || *oc.TargetNumArchives != 4 {
		t.Errorf("Unexpected target num archives: %v", oc.TargetNumArchives)
	}
	if oc.TargetSegmentSize != nil || oc.TargetEncodedFileSize != nil || oc.TargetArchiveDictionariesDataSize != nil {
		t.Errorf("Unset tuning should be omitted, got %+v", oc)
	}
}

func TestSubmit_PathsAbsolute(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	id, err := NewSubmitter(st).Submit(ctx, Request{Paths: []string{"relative/logs", "  ", ""}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	record, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(record.InputConfig.Paths) != 1 {
		t.Fatalf("Blank paths should be skipped, got %v", record.InputConfig.Paths)
	}
	if !filepath.IsAbs(record.InputConfig.Paths[0]) {
		t.Errorf("Path should be absolute, got %q", record.InputConfig.Paths[0])
	}
}

func TestReadInputList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.txt")
	content := "/var/log/app\n\n  /var/log/db  \n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	paths, err := ReadInputList(path)
	if err != nil {
		t.Fatalf("ReadInputList failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/var/log/app" || paths[1] != "/var/log/db" {
		t.Errorf("Unexpected paths: %v", paths)
	}
}

func TestReadInputList_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.txt")
	if err := os.WriteFile(path, []byte("\n  \n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ReadInputList(path); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Empty input list should be rejected, got %v", err)
	}
}

func TestReadInputList_Missing(t *testing.T) {
	if _, err := ReadInputList(filepath.Join(t.TempDir(), "nope.txt")); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Missing input list should be rejected, got %v", err)
	}
}
