// Package cli wires the claimassess commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sprite-ai/claimassess/internal/config"
	"github.com/sprite-ai/claimassess/internal/logging"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     = config.Defaults()
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "claimassess",
	Short: "File a car insurance claim with an AI damage assessment",
	Long: `claimassess walks through a three-step claim: claim information,
damage photos, and a review of the AI damage assessment with an editable
cost breakdown.

Run without a subcommand to open the interactive wizard.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runWizard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/claimassess/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	addWizardFlags(rootCmd)

	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.ReadIn(v, cfgFile); err != nil {
		return err
	}

	c, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = c

	l, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logger = l
	logger.Debug("config loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.Duration("analysis_delay", cfg.AnalysisDelay),
		zap.Int64("upload_max_bytes", cfg.Upload.MaxBytes))
	return nil
}
