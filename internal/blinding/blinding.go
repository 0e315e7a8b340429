// Package blinding assigns the neutral A/B labels that hide which mode
// produced which output. The assignment is a pure function of (salt, prompt
// id); the randomized call order carries no information into it.
package blinding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"diastole/internal/types"
)

// fingerprint returns the first 12 hex characters of the sha256 digest.
// Collision resistance across a few dozen prompt ids is all that matters here.
func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}

// Label maps (salt, promptID, mode) to "A" or "B". For a fixed salt the same
// prompt id always yields the same assignment, and the two modes of one
// prompt always land on complementary labels.
func Label(salt, promptID string, m types.Mode) string {
	h := fingerprint(salt + ":" + promptID)
	bit, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		// 12 hex chars always fit in 48 bits; unreachable.
		panic(fmt.Sprintf("blinding: bad fingerprint %q: %v", h, err))
	}
	if bit%2 == 0 {
		if m == types.ModeContinuous {
			return "A"
		}
		return "B"
	}
	if m == types.ModeContinuous {
		return "B"
	}
	return "A"
}

// PairFor resolves the full A/B assignment for one prompt.
func PairFor(salt, promptID string) types.BlindPair {
	if Label(salt, promptID, types.ModeContinuous) == "A" {
		return types.BlindPair{A: types.ModeContinuous, B: types.ModeDiastolic}
	}
	return types.BlindPair{A: types.ModeDiastolic, B: types.ModeContinuous}
}

// NewSalt builds the run salt from the configured seed and the run start
// time. The timestamp makes label assignment vary run to run even with the
// same seed; the seed itself controls only call-order shuffling.
func NewSalt(seed int64, start time.Time) string {
	return fmt.Sprintf("%d:%s", seed, start.UTC().Format(time.RFC3339Nano))
}
