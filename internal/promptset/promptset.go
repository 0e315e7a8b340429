// Package promptset loads and validates the ordered prompt collection that
// drives an experiment run.
package promptset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"diastole/internal/types"
)

// ErrInvalid marks a malformed or missing prompt-set source. Fatal: the run
// aborts before any generation calls are made.
var ErrInvalid = errors.New("invalid prompt set")

// DefaultCategory is assigned to prompts that declare no category.
const DefaultCategory = "UNKNOWN"

type entry struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// Load reads a JSON prompt set from path. The document must carry a top-level
// "prompts" list; each entry must resolve an id and prompt text. File order is
// preserved. Duplicate identifiers are rejected so that per-call output files
// can never silently overwrite each other.
func Load(path string) ([]types.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var doc struct {
		Prompts json.RawMessage `json:"prompts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	if len(doc.Prompts) == 0 || string(doc.Prompts) == "null" {
		return nil, fmt.Errorf("%w: %s must have top-level key %q as a list", ErrInvalid, path, "prompts")
	}

	var entries []entry
	if err := json.Unmarshal(doc.Prompts, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s must have top-level key %q as a list", ErrInvalid, path, "prompts")
	}

	seen := make(map[string]bool, len(entries))
	prompts := make([]types.Prompt, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: prompt at index %d has no id", ErrInvalid, i)
		}
		if e.Prompt == "" {
			return nil, fmt.Errorf("%w: prompt %q has no prompt text", ErrInvalid, e.ID)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate prompt id %q", ErrInvalid, e.ID)
		}
		seen[e.ID] = true

		category := e.Category
		if category == "" {
			category = DefaultCategory
		}
		prompts = append(prompts, types.Prompt{ID: e.ID, Category: category, Text: e.Prompt})
	}

	return prompts, nil
}
