// Package types holds the shared domain types for the diastole experiment
// harness: modes, prompts, call records, and blind pairs.
package types

// Mode identifies one of the two generation configurations under comparison.
type Mode string

const (
	// ModeContinuous is the neutral baseline.
	ModeContinuous Mode = "continuous"
	// ModeDiastolic is the structured, instruction-augmented variant.
	ModeDiastolic Mode = "diastolic"
)

// Modes returns both modes in canonical order.
func Modes() []Mode {
	return []Mode{ModeContinuous, ModeDiastolic}
}

// Valid reports whether m is one of the two known modes.
func (m Mode) Valid() bool {
	return m == ModeContinuous || m == ModeDiastolic
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeContinuous {
		return ModeDiastolic
	}
	return ModeContinuous
}

// Prompt is one entry of the prompt set. Immutable once loaded; file order
// defines iteration and output ordering.
type Prompt struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"prompt"`
}

// CallRecord is the full stored result of one generation invocation for one
// (prompt, mode) pair. Field names match the persisted JSON exactly.
type CallRecord struct {
	TS          string                 `json:"ts"`
	PromptID    string                 `json:"prompt_id"`
	Category    string                 `json:"category"`
	Mode        Mode                   `json:"mode"`
	Model       string                 `json:"model"`
	Temperature float64                `json:"temperature"`
	LatencyS    float64                `json:"latency_s"`
	Prompt      string                 `json:"prompt"`
	OutputText  string                 `json:"output_text"`
	RawResponse map[string]interface{} `json:"raw_response,omitempty"`
}

// Lean returns the transcript view of the record: identical fields with the
// raw provider metadata dropped.
func (r CallRecord) Lean() CallRecord {
	r.RawResponse = nil
	return r
}

// BlindPair records which mode is exposed under each blinded label for one
// prompt. A and B are always complementary.
type BlindPair struct {
	A Mode `json:"A"`
	B Mode `json:"B"`
}
