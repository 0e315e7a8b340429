// Package experiment orchestrates the blinded A/B run: both modes per
// prompt in randomized call order, immediate artifact persistence, and the
// blinded comparison with its unblinding key.
package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"diastole/internal/artifact"
	"diastole/internal/blinding"
	"diastole/internal/instructions"
	"diastole/internal/provider"
	"diastole/internal/types"
)

// ErrorSentinel prefixes the output text of a record whose generation call
// failed. The failure reason follows the prefix verbatim.
const ErrorSentinel = "ERROR: "

// Config holds the per-run generation parameters.
type Config struct {
	Model           string
	Temperature     float64
	Seed            int64
	MaxOutputTokens int
	Sleep           time.Duration // optional courtesy delay between calls
}

// PromptResult aggregates everything produced for one prompt.
type PromptResult struct {
	Prompt  types.Prompt
	Records map[types.Mode]types.CallRecord
	Pair    types.BlindPair
}

// Result summarizes a completed run.
type Result struct {
	Prompts  []PromptResult
	Calls    int
	Failures int
}

// Runner drives both modes across the prompt set and all artifact surfaces.
// Strictly sequential: one outstanding generation call at a time.
type Runner struct {
	client provider.Client
	instr  *instructions.Set
	writer *artifact.Writer
	cfg    Config
	salt   string
	rng    *rand.Rand
	logger *zap.Logger
}

// NewRunner builds a runner. The seeded generator created here drives only
// call-order shuffling; label assignment is a pure function of the salt.
func NewRunner(client provider.Client, instr *instructions.Set, writer *artifact.Writer, cfg Config, salt string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		client: client,
		instr:  instr,
		writer: writer,
		cfg:    cfg,
		salt:   salt,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logger,
	}
}

// Run executes the experiment over the prompt set, in order. Individual call
// failures degrade to error records and the run continues; only storage
// failures abort, identified by the failing prompt.
func (r *Runner) Run(ctx context.Context, prompts []types.Prompt) (*Result, error) {
	res := &Result{}

	for i, p := range prompts {
		order := []types.Mode{types.ModeContinuous, types.ModeDiastolic}
		r.rng.Shuffle(len(order), func(a, b int) {
			order[a], order[b] = order[b], order[a]
		})

		records := make(map[types.Mode]types.CallRecord, 2)
		for _, m := range order {
			rec, failed := r.invoke(ctx, p, m)
			if err := r.writer.WriteCallRecord(rec); err != nil {
				return nil, fmt.Errorf("prompt %s: %w", p.ID, err)
			}
			if err := r.writer.AppendTranscript(rec); err != nil {
				return nil, fmt.Errorf("prompt %s: %w", p.ID, err)
			}
			records[m] = rec
			res.Calls++
			if failed {
				res.Failures++
			}
			if r.cfg.Sleep > 0 {
				time.Sleep(r.cfg.Sleep)
			}
		}

		pair := blinding.PairFor(r.salt, p.ID)
		r.writer.AddComparison(p, records[pair.A], records[pair.B])
		r.writer.AddKeyEntry(p.ID, p.Category, pair)
		res.Prompts = append(res.Prompts, PromptResult{Prompt: p, Records: records, Pair: pair})

		r.logger.Info("prompt complete",
			zap.String("prompt_id", p.ID),
			zap.String("category", p.Category),
			zap.Int("done", i+1),
			zap.Int("total", len(prompts)))
	}

	if err := r.writer.Flush(); err != nil {
		return nil, err
	}
	return res, nil
}

// invoke runs one generation call and always returns a record; failures
// become error records through the same path for both modes, so one mode can
// never abort the other.
func (r *Runner) invoke(ctx context.Context, p types.Prompt, m types.Mode) (types.CallRecord, bool) {
	req := provider.GenerateRequest{
		Model:           r.cfg.Model,
		Instructions:    r.instr.For(m),
		UserPrompt:      p.Text,
		Temperature:     r.cfg.Temperature,
		MaxOutputTokens: r.cfg.MaxOutputTokens,
	}

	start := time.Now()
	out, err := r.client.Generate(ctx, req)
	latency := time.Since(start)

	rec := types.CallRecord{
		TS:          time.Now().UTC().Format(time.RFC3339Nano),
		PromptID:    p.ID,
		Category:    p.Category,
		Mode:        m,
		Model:       r.cfg.Model,
		Temperature: r.cfg.Temperature,
		LatencyS:    roundLatency(latency),
		Prompt:      p.Text,
	}

	if err != nil {
		r.logger.Warn("generation call failed",
			zap.String("prompt_id", p.ID),
			zap.String("mode", string(m)),
			zap.Error(err))
		rec.OutputText = ErrorSentinel + err.Error()
		rec.RawResponse = map[string]interface{}{"error": err.Error()}
		return rec, true
	}

	rec.OutputText = out.OutputText
	rec.RawResponse = out.Raw
	return rec, false
}

// roundLatency keeps latencies at millisecond precision in the records.
func roundLatency(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
