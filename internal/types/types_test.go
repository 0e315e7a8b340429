package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModeHelpers(t *testing.T) {
	if !ModeContinuous.Valid() || !ModeDiastolic.Valid() {
		t.Error("both known modes must be valid")
	}
	if Mode("systolic").Valid() {
		t.Error("unknown mode must be invalid")
	}
	if ModeContinuous.Other() != ModeDiastolic || ModeDiastolic.Other() != ModeContinuous {
		t.Error("Other must flip between the two modes")
	}
	if got := Modes(); len(got) != 2 || got[0] != ModeContinuous || got[1] != ModeDiastolic {
		t.Errorf("Modes() = %v", got)
	}
}

func TestCallRecordLean(t *testing.T) {
	full := CallRecord{
		TS:          "2025-08-24T10:00:00Z",
		PromptID:    "p1",
		Category:    "test",
		Mode:        ModeContinuous,
		Model:       "m",
		Temperature: 0.2,
		LatencyS:    1.5,
		Prompt:      "ping",
		OutputText:  "pong",
		RawResponse: map[string]interface{}{"id": "msg_1"},
	}

	want := full
	want.RawResponse = nil

	if diff := cmp.Diff(want, full.Lean()); diff != "" {
		t.Errorf("Lean() mismatch (-want +got):\n%s", diff)
	}
	if full.RawResponse == nil {
		t.Error("Lean must not mutate the receiver")
	}
}
