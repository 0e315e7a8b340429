package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diastole/internal/artifact"
	"diastole/internal/config"
	"diastole/internal/experiment"
	"diastole/internal/instructions"
	"diastole/internal/provider"
)

var (
	claireModel       string
	claireTemperature float64
	claireOutDir      string
)

// claireCmd runs the fixed multi-turn conversation through both modes.
var claireCmd = &cobra.Command{
	Use:   "claire",
	Short: "Run Claire's fixed three-turn conversation through both modes",
	Long: `Simulates the three-turn "devil trend" interaction (setup, "The devil
couldn't reach me.", "How?") once per mode and stores both named transcripts
in a single JSON results file. No blinding is applied.`,
	RunE: runClaireCmd,
}

func init() {
	claireCmd.Flags().StringVar(&claireModel, "model", "", "Generation model identifier")
	claireCmd.Flags().Float64Var(&claireTemperature, "temperature", 0.2, "Sampling temperature")
	claireCmd.Flags().StringVar(&claireOutDir, "out", ".", "Output directory")
}

func runClaireCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.LLM.Model = claireModel
	}
	if flags.Changed("temperature") {
		cfg.Experiment.Temperature = claireTemperature
	}
	if flags.Changed("out") {
		cfg.Experiment.OutDir = claireOutDir
	}

	instr, err := instructions.Load(cfg.ResolvedInstructionsDir())
	if err != nil {
		return err
	}

	client, providerName, err := provider.Detect(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.TimeoutDuration())
	if err != nil {
		return err
	}

	logger.Info("starting claire run",
		zap.String("api", providerName),
		zap.String("model", cfg.LLM.Model))

	res, err := experiment.RunClaire(cmd.Context(), client, instr, experiment.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.Experiment.Temperature,
		MaxOutputTokens: 1024,
		Sleep:           time.Second,
	}, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Experiment.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(cfg.Experiment.OutDir, "claire_results.json")
	if err := artifact.WriteJSON(path, res); err != nil {
		return err
	}

	fmt.Println("DONE")
	fmt.Printf("- results: %s\n", path)
	return nil
}
