package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/logpress/logpress/pkg/config"
	"github.com/logpress/logpress/pkg/logging"
	"github.com/logpress/logpress/pkg/store"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "logpress",
	Short: "CLI for submitting and tracking log compression jobs",
	Long: `logpress submits log compression jobs to the shared job store and tracks
them to completion. Compression itself runs on separate worker processes;
this tool only manages the client side of a job's lifecycle.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.logpress/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// openStore connects to the configured job store.
func openStore(ctx context.Context, cfg *config.Config) (store.JobStore, error) {
	return store.NewMongoStore(ctx, cfg.StoreConfig())
}

func newReporter(cfg *config.Config) *logging.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel), IsJSONOutput())
}
