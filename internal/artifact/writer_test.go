package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diastole/internal/types"
)

func testMeta() Meta {
	return Meta{
		RunID:       "run-1",
		Seed:        12345,
		Salt:        "12345:2025-08-24T10:00:00Z",
		API:         "anthropic",
		Model:       "claude-sonnet-4-20250514",
		Temperature: 0.2,
	}
}

func testRecord(m types.Mode, promptID, output string) types.CallRecord {
	return types.CallRecord{
		TS:          "2025-08-24T10:00:01Z",
		PromptID:    promptID,
		Category:    "test",
		Mode:        m,
		Model:       "claude-sonnet-4-20250514",
		Temperature: 0.2,
		LatencyS:    1.234,
		Prompt:      "ping",
		OutputText:  output,
		RawResponse: map[string]interface{}{"id": "msg_1"},
	}
}

func TestNewWriterCreatesLayoutAndResetsTranscript(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "outputs.jsonl")
	if err := os.WriteFile(stale, []byte("left over\n"), 0o644); err != nil {
		t.Fatalf("write stale transcript: %v", err)
	}

	w, err := NewWriter(dir, testMeta())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	for _, m := range types.Modes() {
		if _, err := os.Stat(filepath.Join(dir, "outputs", string(m))); err != nil {
			t.Errorf("missing outputs dir for %s: %v", m, err)
		}
	}
	if _, err := os.Stat(w.TranscriptPath()); !os.IsNotExist(err) {
		t.Error("stale transcript should have been removed")
	}
}

func TestWriteCallRecordOverwrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, testMeta())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.WriteCallRecord(testRecord(types.ModeContinuous, "p1", "first")); err != nil {
		t.Fatalf("WriteCallRecord failed: %v", err)
	}
	if err := w.WriteCallRecord(testRecord(types.ModeContinuous, "p1", "second")); err != nil {
		t.Fatalf("WriteCallRecord rewrite failed: %v", err)
	}

	data, err := os.ReadFile(w.RecordPath(types.ModeContinuous, "p1"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var rec types.CallRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("parse record: %v", err)
	}
	if rec.OutputText != "second" {
		t.Errorf("OutputText = %q, want second (overwrite wholesale)", rec.OutputText)
	}
	if rec.RawResponse == nil {
		t.Error("per-call record should keep raw metadata")
	}
}

func TestAppendTranscriptOmitsRawMetadata(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, testMeta())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.AppendTranscript(testRecord(types.ModeContinuous, "p1", "out-1")); err != nil {
		t.Fatalf("AppendTranscript failed: %v", err)
	}
	if err := w.AppendTranscript(testRecord(types.ModeDiastolic, "p1", "out-2")); err != nil {
		t.Fatalf("AppendTranscript failed: %v", err)
	}

	data, err := os.ReadFile(w.TranscriptPath())
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("transcript lines = %d, want 2", len(lines))
	}

	for _, line := range lines {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("transcript line not valid JSON: %v", err)
		}
		for _, field := range []string{"ts", "prompt_id", "category", "mode", "model", "temperature", "latency_s", "prompt", "output_text"} {
			if _, ok := obj[field]; !ok {
				t.Errorf("transcript line missing field %q", field)
			}
		}
		if _, ok := obj["raw_response"]; ok {
			t.Error("transcript line should omit raw_response")
		}
	}
}

func TestFlushWritesComparisonAndKey(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, testMeta())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	p := types.Prompt{ID: "p1", Category: "test", Text: "ping"}
	recA := testRecord(types.ModeDiastolic, "p1", "pong-diastolic")
	recB := testRecord(types.ModeContinuous, "p1", "pong-continuous")
	pair := types.BlindPair{A: types.ModeDiastolic, B: types.ModeContinuous}

	w.AddComparison(p, recA, recB)
	w.AddKeyEntry(p.ID, p.Category, pair)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	comparison, err := os.ReadFile(w.ComparisonPath())
	if err != nil {
		t.Fatalf("read comparison: %v", err)
	}
	text := string(comparison)
	if !strings.Contains(text, "## p1 — test") {
		t.Error("comparison missing prompt section header")
	}
	if !strings.Contains(text, "### Response A\n\npong-diastolic") {
		t.Error("comparison missing response A body")
	}
	if !strings.Contains(text, "### Response B\n\npong-continuous") {
		t.Error("comparison missing response B body")
	}
	if !strings.Contains(text, "- seed: `12345`") {
		t.Error("comparison header missing seed")
	}
	if !strings.Contains(text, "- api: `anthropic`") {
		t.Error("comparison header missing api")
	}

	keyData, err := os.ReadFile(w.KeyPath())
	if err != nil {
		t.Fatalf("read key: %v", err)
	}
	var key struct {
		Meta  Meta `json:"meta"`
		Pairs []struct {
			PromptID string `json:"prompt_id"`
			Category string `json:"category"`
			A        string `json:"A"`
			B        string `json:"B"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(keyData, &key); err != nil {
		t.Fatalf("parse key: %v", err)
	}
	if key.Meta.Salt != testMeta().Salt {
		t.Errorf("key meta salt = %q", key.Meta.Salt)
	}
	if key.Meta.API != "anthropic" {
		t.Errorf("key meta api = %q, want anthropic", key.Meta.API)
	}
	if len(key.Pairs) != 1 || key.Pairs[0].A != "diastolic" || key.Pairs[0].B != "continuous" {
		t.Errorf("key pairs = %+v", key.Pairs)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := WriteJSON(path, map[string]string{"test": "ok"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if !strings.Contains(string(data), `"test": "ok"`) {
		t.Errorf("unexpected content: %s", data)
	}
}
