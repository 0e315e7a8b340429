// Package artifact persists the run's output files: per-call JSON records,
// the append-only JSONL transcript, the blinded comparison document, and the
// unblinding key.
//
// Re-run semantics differ per surface: per-call JSON and the key/comparison
// documents are overwritten wholesale, while the transcript is recreated
// empty at run start and appended to within the run.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"diastole/internal/types"
)

// ErrStorage marks a failed artifact write. Fatal: the run aborts, leaving
// artifacts for earlier prompts valid on disk.
var ErrStorage = errors.New("storage failure")

// Meta is the run-level metadata recorded in the comparison header and the
// unblinding key.
type Meta struct {
	RunID       string  `json:"run_id"`
	Seed        int64   `json:"seed"`
	Salt        string  `json:"salt"`
	API         string  `json:"api"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

type keyEntry struct {
	PromptID string     `json:"prompt_id"`
	Category string     `json:"category"`
	A        types.Mode `json:"A"`
	B        types.Mode `json:"B"`
}

type keyDocument struct {
	Meta  Meta       `json:"meta"`
	Pairs []keyEntry `json:"pairs"`
}

// Writer owns the output directory for one run. It is not safe for concurrent
// use; the run model is strictly sequential.
type Writer struct {
	outDir     string
	meta       Meta
	comparison []string
	key        keyDocument
}

// NewWriter prepares the output layout: per-mode record directories are
// created, and any transcript left over from a previous run is removed so
// the run starts with an empty one.
func NewWriter(outDir string, meta Meta) (*Writer, error) {
	for _, m := range types.Modes() {
		dir := filepath.Join(outDir, "outputs", string(m))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrStorage, dir, err)
		}
	}

	w := &Writer{outDir: outDir, meta: meta}
	if err := os.Remove(w.TranscriptPath()); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: reset transcript: %v", ErrStorage, err)
	}

	w.comparison = []string{
		"# Artificial Diastole — Blinded Comparisons",
		"",
		fmt.Sprintf("- api: `%s`", meta.API),
		fmt.Sprintf("- model: `%s`", meta.Model),
		fmt.Sprintf("- temperature: `%g`", meta.Temperature),
		fmt.Sprintf("- seed: `%d`", meta.Seed),
		"",
	}
	w.key = keyDocument{Meta: meta, Pairs: []keyEntry{}}
	return w, nil
}

// RecordPath returns the per-call JSON path for one (mode, prompt id) pair.
func (w *Writer) RecordPath(m types.Mode, promptID string) string {
	return filepath.Join(w.outDir, "outputs", string(m), promptID+".json")
}

// TranscriptPath returns the JSONL transcript path.
func (w *Writer) TranscriptPath() string {
	return filepath.Join(w.outDir, "outputs.jsonl")
}

// ComparisonPath returns the blinded comparison document path.
func (w *Writer) ComparisonPath() string {
	return filepath.Join(w.outDir, "comparison.md")
}

// KeyPath returns the unblinding key path.
func (w *Writer) KeyPath() string {
	return filepath.Join(w.outDir, "key.json")
}

// WriteCallRecord overwrites the per-call JSON file with the full record,
// raw provider metadata included.
func (w *Writer) WriteCallRecord(rec types.CallRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal record %s/%s: %v", ErrStorage, rec.Mode, rec.PromptID, err)
	}
	path := w.RecordPath(rec.Mode, rec.PromptID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	return nil
}

// AppendTranscript appends one compact JSON line for the record, raw provider
// metadata omitted to keep the transcript lean.
func (w *Writer) AppendTranscript(rec types.CallRecord) error {
	data, err := json.Marshal(rec.Lean())
	if err != nil {
		return fmt.Errorf("%w: marshal transcript %s/%s: %v", ErrStorage, rec.Mode, rec.PromptID, err)
	}

	f, err := os.OpenFile(w.TranscriptPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open transcript: %v", ErrStorage, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: append transcript: %v", ErrStorage, err)
	}
	return nil
}

// AddComparison accumulates one blinded section for the prompt: category,
// verbatim prompt text, and the two responses under their neutral labels.
// recA and recB must already be in label order.
func (w *Writer) AddComparison(p types.Prompt, recA, recB types.CallRecord) {
	w.comparison = append(w.comparison,
		fmt.Sprintf("## %s — %s", p.ID, p.Category),
		"",
		"**Prompt**",
		"",
		"```",
		strings.TrimSpace(p.Text),
		"```",
		"",
		"### Response A",
		"",
		strings.TrimSpace(recA.OutputText),
		"",
		"### Response B",
		"",
		strings.TrimSpace(recB.OutputText),
		"",
		"---",
		"",
	)
}

// AddKeyEntry accumulates the unblinding entry for one prompt.
func (w *Writer) AddKeyEntry(promptID, category string, pair types.BlindPair) {
	w.key.Pairs = append(w.key.Pairs, keyEntry{
		PromptID: promptID,
		Category: category,
		A:        pair.A,
		B:        pair.B,
	})
}

// Flush writes the comparison document and the unblinding key. Called once,
// after the whole prompt set has been processed; an interrupted run leaves
// neither file behind.
func (w *Writer) Flush() error {
	comparison := strings.Join(w.comparison, "\n")
	if err := os.WriteFile(w.ComparisonPath(), []byte(comparison), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, w.ComparisonPath(), err)
	}

	data, err := json.MarshalIndent(w.key, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal key: %v", ErrStorage, err)
	}
	if err := os.WriteFile(w.KeyPath(), data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, w.KeyPath(), err)
	}
	return nil
}

// WriteJSON writes one indented JSON document to path. Used for one-off
// result files (the Claire script output) that do not belong to the A/B
// layout a Writer owns.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	return nil
}
