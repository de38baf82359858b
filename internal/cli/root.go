// Package cli implements the datacleaner command line: the web server and
// a batch cleaner for files on disk.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datacleaner/internal/config"
	"github.com/JonMunkholm/datacleaner/internal/core"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "datacleaner",
		Short:         "Clean CSV and Excel files",
		Long:          "Upload, preview, de-duplicate, fill and export tabular data, from the browser or the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default $"+config.FileEnv+")")

	rootCmd.AddCommand(
		newServeCmd(&configFile),
		newCleanCmd(&configFile),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration, preferring the --config flag over the
// environment variable naming the file.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// serviceOptions maps the configuration onto the pipeline service.
func serviceOptions(cfg *config.Config) core.Options {
	return core.Options{
		PreviewRows:     cfg.Preview.Rows,
		ChartMaxBars:    cfg.Chart.MaxBars,
		MaxFiles:        cfg.Upload.MaxFiles,
		SessionTTL:      cfg.Session.TTL,
		MaxSessions:     cfg.Session.MaxEntries,
		MaxConcurrent:   cfg.Upload.MaxConcurrent,
		MaxWait:         cfg.Upload.MaxWaitTime,
		CleanupInterval: cfg.Session.CleanupInterval,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "datacleaner version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
