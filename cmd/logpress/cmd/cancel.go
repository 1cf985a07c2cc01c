package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logpress/logpress/pkg/monitor"
)

// cancelCmd represents the cancel command
var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cancellation of a pending compression job",
	Long: `Request cancellation of a compression job that has not started running.
Cancellation is cooperative: a job a worker has already picked up will
continue to run in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	jobID := args[0]

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

	mon := monitor.New(st, reporter, monitor.WithInterval(cfg.PollInterval))
	coord := monitor.NewCoordinator(st, reporter, mon)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = coord.Cancel(sigCtx, jobID)
	return err
}
