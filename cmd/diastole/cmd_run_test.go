package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestResolveRunConfigLayersFlags(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DIASTOLIC_MODEL", "")
	t.Setenv("DIASTOLIC_TEMPERATURE", "")

	configPath = filepath.Join(t.TempDir(), "absent.yaml")

	flags := runCmd.Flags()
	for _, kv := range [][2]string{
		{"model", "gpt-4.1"},
		{"seed", "7"},
		{"timeout", "30s"},
		{"sleep", "0.5"},
	} {
		if err := flags.Set(kv[0], kv[1]); err != nil {
			t.Fatalf("set --%s: %v", kv[0], err)
		}
	}

	cfg, err := resolveRunConfig(runCmd)
	if err != nil {
		t.Fatalf("resolveRunConfig failed: %v", err)
	}

	if cfg.LLM.Model != "gpt-4.1" {
		t.Errorf("model = %q, want gpt-4.1", cfg.LLM.Model)
	}
	if cfg.Experiment.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Experiment.Seed)
	}
	if cfg.TimeoutDuration() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.TimeoutDuration())
	}
	if cfg.SleepDuration() != 500*time.Millisecond {
		t.Errorf("sleep = %v, want 500ms", cfg.SleepDuration())
	}

	// Untouched settings keep their defaults.
	if cfg.Experiment.MaxOutputTokens != 900 {
		t.Errorf("max output tokens = %d, want 900", cfg.Experiment.MaxOutputTokens)
	}
	if cfg.Experiment.PromptsPath != "prompts.json" {
		t.Errorf("prompts path = %q, want prompts.json", cfg.Experiment.PromptsPath)
	}
}
