// Package config resolves experiment configuration from an optional YAML
// file, environment overrides, and CLI flags (applied by the command layer,
// in that order).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all diastole configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

// LLMConfig configures the generation service client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// ExperimentConfig configures the run itself.
type ExperimentConfig struct {
	Temperature     float64 `yaml:"temperature"`
	Seed            int64   `yaml:"seed"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	PromptsPath     string  `yaml:"prompts"`
	InstructionsDir string  `yaml:"instructions_dir"` // empty means the output directory
	OutDir          string  `yaml:"out_dir"`
	SleepSeconds    float64 `yaml:"sleep_seconds"`
	Index           bool    `yaml:"index"` // record the run into runs.db
}

// Default returns the baseline configuration, matching the experiment's
// historical defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "claude-sonnet-4-20250514",
			Timeout: "120s",
		},
		Experiment: ExperimentConfig{
			Temperature:     0.2,
			Seed:            12345,
			MaxOutputTokens: 900,
			PromptsPath:     "prompts.json",
			OutDir:          ".",
		},
	}
}

// Load reads configuration from path (when it exists) over the defaults,
// then applies environment overrides. An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is fine; defaults apply.
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides layers environment variables over the loaded values.
// API keys select a provider only when none is configured.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "anthropic"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if model := os.Getenv("DIASTOLIC_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if temp := os.Getenv("DIASTOLIC_TEMPERATURE"); temp != "" {
		if f, err := strconv.ParseFloat(temp, 64); err == nil {
			c.Experiment.Temperature = f
		}
	}
}

// TimeoutDuration parses the configured client timeout, falling back to two
// minutes on a missing or malformed value.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// SleepDuration converts the configured inter-call delay.
func (c *Config) SleepDuration() time.Duration {
	if c.Experiment.SleepSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Experiment.SleepSeconds * float64(time.Second))
}

// ResolvedInstructionsDir is the directory instruction files are read from;
// the historical layout keeps them next to the outputs.
func (c *Config) ResolvedInstructionsDir() string {
	if c.Experiment.InstructionsDir != "" {
		return c.Experiment.InstructionsDir
	}
	return c.Experiment.OutDir
}
