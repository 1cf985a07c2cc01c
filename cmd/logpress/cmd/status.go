package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/logpress/logpress/pkg/models"
	"github.com/logpress/logpress/pkg/monitor"
	"github.com/logpress/logpress/pkg/store"
)

var followStatus bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show status for a compression job",
	Long:  `Retrieve the status of a compression job by its ID. With --follow, poll the job until it reaches a terminal state.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&followStatus, "follow", false, "poll job status until completion")
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if followStatus {
		reporter := newReporter(cfg)
		mon := monitor.New(st, reporter, monitor.WithInterval(cfg.PollInterval))

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err := mon.Wait(sigCtx, jobID)
		return err
	}

	record, err := st.Get(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return err
	}

	return displayJobRecord(record)
}

func displayJobRecord(record *models.JobRecord) error {
	if IsJSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Job", models.HumanJobID(record.ID.Hex()))
	table.Append("Status", string(record.Status))
	table.Append("Submitted", time.UnixMilli(record.SubmissionTimestamp).UTC().Format(time.RFC3339))
	if record.BeginTimestamp.Valid {
		table.Append("Started", record.BeginTimestamp.Time().Format(time.RFC3339))
	}
	if record.EndTimestamp.Valid {
		table.Append("Ended", record.EndTimestamp.Time().Format(time.RFC3339))
	}
	table.Append("Uncompressed", humanize.IBytes(uint64(record.LogsUncompressedSize)))
	table.Append("Compressed", humanize.IBytes(uint64(record.LogsCompressedSize)))
	if record.InputConfig.PathPrefixToRemove != "" {
		table.Append("Prefix Removed", record.InputConfig.PathPrefixToRemove)
	}
	table.Append("Paths", fmt.Sprintf("%d", len(record.InputConfig.Paths)))
	if record.Errors {
		table.Append("Errors", "yes")
	}

	table.Render()
	return nil
}
