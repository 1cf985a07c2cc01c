package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/monitor"
	"github.com/logpress/logpress/pkg/submit"
)

var (
	// Submit flags
	inputListPath      string
	pathPrefixToRemove string

	targetArchiveSize                 int64
	targetArchiveDictionariesDataSize int64
	targetSegmentSize                 int64
	targetEncodedFileSize             int64
	targetNumArchives                 int64
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit [PATH]...",
	Short: "Submit a compression job and wait for it to finish",
	Long: `Submit a compression job for the given paths and track it until it
reaches a terminal state. Interrupting the wait (Ctrl+C) requests
cancellation; a job a worker has already started continues to run in the
background.

Paths are given either on the command line or through --input-list, not both.

Example:
  logpress submit /var/log/app
  logpress submit -f paths.txt --path-prefix-to-remove /var/log
  logpress submit /var/log/app --target-archive-size 268435456`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&inputListPath, "input-list", "f", "", "file listing all paths to compress")
	submitCmd.Flags().StringVar(&pathPrefixToRemove, "path-prefix-to-remove", "", "remove the given path prefix from each compressed file/dir")
	submitCmd.Flags().Int64Var(&targetArchiveSize, "target-archive-size", 0, "target archive size in bytes")
	submitCmd.Flags().Int64Var(&targetArchiveDictionariesDataSize, "target-archive-dictionaries-data-size", 0, "target data size of archive dictionaries in bytes")
	submitCmd.Flags().Int64Var(&targetSegmentSize, "target-segment-size", 0, "target segment size in bytes")
	submitCmd.Flags().Int64Var(&targetEncodedFileSize, "target-encoded-file-size", 0, "target encoded file size in bytes")
	submitCmd.Flags().Int64Var(&targetNumArchives, "target-num-archives", 0, "target number of archives to create")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	req := submit.Request{
		Paths:              args,
		InputListPath:      inputListPath,
		PathPrefixToRemove: pathPrefixToRemove,
		Tuning:             tuningFromFlags(cmd),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reporter := newReporter(cfg)

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	jobID, err := submit.NewSubmitter(st).Submit(ctx, req)
	if err != nil {
		return err
	}
	reporter.Info(fmt.Sprintf("Compression %s submitted.", models.HumanJobID(jobID)))
	reporter.Info("Waiting for updates...")

	mon := monitor.New(st, reporter, monitor.WithInterval(cfg.PollInterval))

	// A first interrupt hands control to the cancellation coordinator; a
	// second one falls back to default signal disposition and kills the
	// process.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := mon.Wait(sigCtx, jobID)
	if err != nil {
		return err
	}
	if res.Outcome != monitor.OutcomeInterrupted {
		return nil
	}
	stop()

	_, err = monitor.NewCoordinator(st, reporter, mon).Cancel(ctx, jobID)
	return err
}

func tuningFromFlags(cmd *cobra.Command) submit.Tuning {
	var t submit.Tuning
	if cmd.Flags().Changed("target-archive-size") {
		t.ArchiveSize = &targetArchiveSize
	}
	if cmd.Flags().Changed("target-archive-dictionaries-data-size") {
		t.ArchiveDictionariesDataSize = &targetArchiveDictionariesDataSize
	}
	if cmd.Flags().Changed("target-segment-size") {
		t.SegmentSize = &targetSegmentSize
	}
	if cmd.Flags().Changed("target-encoded-file-size") {
		t.EncodedFileSize = &targetEncodedFileSize
	}
	if cmd.Flags().Changed("target-num-archives") {
		t.NumArchives = &targetNumArchives
	}
	return t
}
