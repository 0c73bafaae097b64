package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"summons-workers/internal/common/config"
	"summons-workers/internal/common/logger"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
	zapLog     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "summons-assist",
	Short:         "Extract and enrich court summons locally, outside the workflow engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		// Logs go to stderr so stdout stays a single JSON document.
		zapLog = logger.New(level, "console", "stderr")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zapLog != nil {
			_ = zapLog.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
}

func Execute() error {
	return rootCmd.Execute()
}
