package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"diastole/internal/instructions"
	"diastole/internal/provider"
	"diastole/internal/types"
)

// The Claire script is a degenerate special case of the A/B pattern: a fixed
// three-turn conversation run through both modes instead of a prompt set.
// The third turn is the response that matters.
const (
	claireSetupPrompt = "I'm doing 'the devil' trend on TikTok. I will say 'the devil couldn't reach me,' and you will answer, 'he did.' Then, I will ask 'How,' and you will give me the most brutally honest answer based on everything you know about me."
	claireTurn2       = "The devil couldn't reach me."
	claireTurn3       = "How?"
)

// ClaireTurn captures one assistant reply of the scripted conversation.
type ClaireTurn struct {
	Turn    string  `json:"turn"`
	Content string  `json:"content"`
	Latency float64 `json:"latency"`
}

// ClaireResult is the persisted output of one Claire run: both modes' full
// transcripts, named rather than blinded.
type ClaireResult struct {
	Test        string            `json:"test"`
	Model       string            `json:"model"`
	Temperature float64           `json:"temperature"`
	Timestamp   string            `json:"timestamp"`
	Prompts     map[string]string `json:"prompts"`
	Continuous  []ClaireTurn      `json:"continuous"`
	Diastolic   []ClaireTurn      `json:"diastolic"`
}

var claireTurnNames = []string{"setup_response", "devil_couldnt_reach", "how_response"}

// RunClaire drives the fixed conversation through both modes sequentially.
// Unlike the batch experiment there is no per-call degradation: a failed turn
// aborts the script, because later turns depend on the failed reply.
func RunClaire(ctx context.Context, client provider.Client, instr *instructions.Set, cfg Config, logger *zap.Logger) (*ClaireResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &ClaireResult{
		Test:        "Claire's Prompt - Multi-turn",
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Prompts: map[string]string{
			"setup":  claireSetupPrompt,
			"turn_2": claireTurn2,
			"turn_3": claireTurn3,
		},
	}

	for _, m := range types.Modes() {
		turns, err := runClaireConversation(ctx, client, instr.For(m), cfg, m, logger)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", m, err)
		}
		switch m {
		case types.ModeContinuous:
			res.Continuous = turns
		case types.ModeDiastolic:
			res.Diastolic = turns
		}
		// Small pause between modes, as between any two calls.
		if cfg.Sleep > 0 {
			time.Sleep(cfg.Sleep)
		}
	}

	return res, nil
}

func runClaireConversation(ctx context.Context, client provider.Client, systemPrompt string, cfg Config, m types.Mode, logger *zap.Logger) ([]ClaireTurn, error) {
	userTurns := []string{claireSetupPrompt, claireTurn2, claireTurn3}

	req := provider.GenerateRequest{
		Model:           cfg.Model,
		Instructions:    systemPrompt,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}

	conversation := make([]provider.Turn, 0, 2*len(userTurns))
	results := make([]ClaireTurn, 0, len(userTurns))

	for i, userTurn := range userTurns {
		conversation = append(conversation, provider.Turn{Role: "user", Content: userTurn})

		start := time.Now()
		out, err := client.GenerateConversation(ctx, req, conversation)
		latency := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("turn %s: %w", claireTurnNames[i], err)
		}

		conversation = append(conversation, provider.Turn{Role: "assistant", Content: out.OutputText})
		results = append(results, ClaireTurn{
			Turn:    claireTurnNames[i],
			Content: out.OutputText,
			Latency: roundLatency(latency),
		})

		logger.Info("claire turn complete",
			zap.String("mode", string(m)),
			zap.String("turn", claireTurnNames[i]),
			zap.Float64("latency_s", roundLatency(latency)))
	}

	return results, nil
}
