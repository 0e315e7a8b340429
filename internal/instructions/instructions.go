// Package instructions holds the per-mode system instruction payloads. The
// payloads are loaded once before a run starts and are read-only for its
// duration.
package instructions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"diastole/internal/types"
)

//go:embed defaults/continuous.txt
var defaultContinuous string

//go:embed defaults/diastolic.txt
var defaultDiastolic string

// ErrMissing marks an unreadable or empty instruction payload. Fatal: the run
// aborts before any generation calls are made.
var ErrMissing = errors.New("missing mode instructions")

// Set holds one opaque instruction payload per mode, fixed for a run.
type Set struct {
	payloads map[types.Mode]string
}

// FileName returns the instruction file name for a mode, matching the
// experiment's on-disk layout (<mode>_instructions.txt).
func FileName(m types.Mode) string {
	return string(m) + "_instructions.txt"
}

// Load reads the two instruction files from dir. A mode whose file does not
// exist falls back to the embedded default payload; any other read failure, or
// an empty payload, is an error. Payload content is not otherwise validated.
func Load(dir string) (*Set, error) {
	defaults := map[types.Mode]string{
		types.ModeContinuous: defaultContinuous,
		types.ModeDiastolic:  defaultDiastolic,
	}

	s := &Set{payloads: make(map[types.Mode]string, 2)}
	for _, m := range types.Modes() {
		path := filepath.Join(dir, FileName(m))
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			s.payloads[m] = string(data)
		case os.IsNotExist(err):
			s.payloads[m] = defaults[m]
		default:
			return nil, fmt.Errorf("%w: read %s: %v", ErrMissing, path, err)
		}
		if strings.TrimSpace(s.payloads[m]) == "" {
			return nil, fmt.Errorf("%w: empty payload for mode %s", ErrMissing, m)
		}
	}
	return s, nil
}

// NewSet builds a Set from explicit payloads. Both must be non-empty.
func NewSet(continuous, diastolic string) (*Set, error) {
	if strings.TrimSpace(continuous) == "" {
		return nil, fmt.Errorf("%w: empty payload for mode %s", ErrMissing, types.ModeContinuous)
	}
	if strings.TrimSpace(diastolic) == "" {
		return nil, fmt.Errorf("%w: empty payload for mode %s", ErrMissing, types.ModeDiastolic)
	}
	return &Set{payloads: map[types.Mode]string{
		types.ModeContinuous: continuous,
		types.ModeDiastolic:  diastolic,
	}}, nil
}

// For returns the payload for mode m.
func (s *Set) For(m types.Mode) string {
	return s.payloads[m]
}
