package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "diastole",
	Short: "Artificial Diastole — blinded A/B experiment harness",
	Long: `diastole runs a blinded A/B experiment comparing two response-generation
modes (a neutral continuous baseline and a structured diastolic variant)
across a fixed prompt set sent to a hosted text-generation API.

Per prompt, both modes are invoked in randomized order; outputs are stored as
per-call JSON records and an append-only transcript, and accumulated into a
blinded comparison document whose A/B labels are resolvable only through the
separately written unblinding key.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "diastole.yaml", "Path to YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(claireCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
