package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diastole/internal/artifact"
	"diastole/internal/blinding"
	"diastole/internal/config"
	"diastole/internal/experiment"
	"diastole/internal/instructions"
	"diastole/internal/promptset"
	"diastole/internal/provider"
	"diastole/internal/store"
	"diastole/internal/types"
)

var (
	runModel           string
	runTemperature     float64
	runSeed            int64
	runMaxOutputTokens int
	runPromptsPath     string
	runInstructionsDir string
	runOutDir          string
	runSleepSeconds    float64
	runTimeout         time.Duration
	runIndex           bool
)

// runCmd executes the blinded A/B experiment over a prompt set.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blinded A/B experiment over a prompt set",
	Long: `Iterates the prompt set in file order; per prompt, invokes both modes in a
seeded-random call order, persists per-call records and transcript lines
immediately, and finishes by writing comparison.md and key.json.

The --seed flag controls only call-order shuffling. Blinded label assignment
is salted with the run start time and intentionally varies run to run.`,
	RunE: runExperiment,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "Generation model identifier")
	runCmd.Flags().Float64Var(&runTemperature, "temperature", 0.2, "Sampling temperature")
	runCmd.Flags().Int64Var(&runSeed, "seed", 12345, "Seed for call-order shuffling (not label assignment)")
	runCmd.Flags().IntVar(&runMaxOutputTokens, "max-output-tokens", 900, "Maximum output tokens per call")
	runCmd.Flags().StringVar(&runPromptsPath, "prompts", "prompts.json", "Path to the prompt-set JSON file")
	runCmd.Flags().StringVar(&runInstructionsDir, "instructions", "", "Directory holding <mode>_instructions.txt files (defaults to the output directory)")
	runCmd.Flags().StringVar(&runOutDir, "out", ".", "Output directory")
	runCmd.Flags().Float64Var(&runSleepSeconds, "sleep", 0, "Fixed delay between calls, in seconds")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 120*time.Second, "Per-call HTTP timeout")
	runCmd.Flags().BoolVar(&runIndex, "index", false, "Record the completed run into runs.db")
}

// resolveRunConfig layers config file, environment, and changed flags.
func resolveRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.LLM.Model = runModel
	}
	if flags.Changed("temperature") {
		cfg.Experiment.Temperature = runTemperature
	}
	if flags.Changed("seed") {
		cfg.Experiment.Seed = runSeed
	}
	if flags.Changed("max-output-tokens") {
		cfg.Experiment.MaxOutputTokens = runMaxOutputTokens
	}
	if flags.Changed("prompts") {
		cfg.Experiment.PromptsPath = runPromptsPath
	}
	if flags.Changed("instructions") {
		cfg.Experiment.InstructionsDir = runInstructionsDir
	}
	if flags.Changed("out") {
		cfg.Experiment.OutDir = runOutDir
	}
	if flags.Changed("sleep") {
		cfg.Experiment.SleepSeconds = runSleepSeconds
	}
	if flags.Changed("timeout") {
		cfg.LLM.Timeout = runTimeout.String()
	}
	if flags.Changed("index") {
		cfg.Experiment.Index = runIndex
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	prompts, err := promptset.Load(cfg.Experiment.PromptsPath)
	if err != nil {
		return err
	}

	instr, err := instructions.Load(cfg.ResolvedInstructionsDir())
	if err != nil {
		return err
	}

	client, providerName, err := provider.Detect(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.TimeoutDuration())
	if err != nil {
		return err
	}

	start := time.Now()
	salt := blinding.NewSalt(cfg.Experiment.Seed, start)
	runID := uuid.NewString()

	meta := artifact.Meta{
		RunID:       runID,
		Seed:        cfg.Experiment.Seed,
		Salt:        salt,
		API:         providerName,
		Model:       cfg.LLM.Model,
		Temperature: cfg.Experiment.Temperature,
	}
	writer, err := artifact.NewWriter(cfg.Experiment.OutDir, meta)
	if err != nil {
		return err
	}

	runner := experiment.NewRunner(client, instr, writer, experiment.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.Experiment.Temperature,
		Seed:            cfg.Experiment.Seed,
		MaxOutputTokens: cfg.Experiment.MaxOutputTokens,
		Sleep:           cfg.SleepDuration(),
	}, salt, logger)

	logger.Info("starting experiment run",
		zap.String("run_id", runID),
		zap.String("api", providerName),
		zap.String("model", cfg.LLM.Model),
		zap.Int("prompts", len(prompts)))

	res, err := runner.Run(cmd.Context(), prompts)
	if err != nil {
		return err
	}

	if cfg.Experiment.Index {
		if err := indexRun(cfg, runID, start, salt, res); err != nil {
			return err
		}
	}

	fmt.Println("DONE")
	fmt.Printf("- outputs.jsonl: %s\n", writer.TranscriptPath())
	fmt.Printf("- comparison.md: %s\n", writer.ComparisonPath())
	fmt.Printf("- key.json: %s\n", writer.KeyPath())
	fmt.Printf("- per-prompt JSON: %s\n", filepath.Join(cfg.Experiment.OutDir, "outputs"))
	if res.Failures > 0 {
		fmt.Printf("- failed calls: %d of %d (error records written)\n", res.Failures, res.Calls)
	}
	return nil
}

// indexRun records the completed run into the SQLite run index.
func indexRun(cfg *config.Config, runID string, start time.Time, salt string, res *experiment.Result) error {
	s, err := store.Open(filepath.Join(cfg.Experiment.OutDir, "runs.db"))
	if err != nil {
		return err
	}
	defer s.Close()

	run := store.RunSummary{
		ID:           runID,
		StartedAt:    start.UTC().Format(time.RFC3339Nano),
		FinishedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Model:        cfg.LLM.Model,
		Temperature:  cfg.Experiment.Temperature,
		Seed:         cfg.Experiment.Seed,
		Salt:         salt,
		PromptCount:  len(res.Prompts),
		FailureCount: res.Failures,
	}

	var calls []store.CallSummary
	for _, pr := range res.Prompts {
		for _, m := range types.Modes() {
			rec := pr.Records[m]
			calls = append(calls, store.CallSummary{
				PromptID: rec.PromptID,
				Mode:     m,
				LatencyS: rec.LatencyS,
				Failed:   strings.HasPrefix(rec.OutputText, experiment.ErrorSentinel),
			})
		}
	}

	return s.RecordRun(run, calls)
}
