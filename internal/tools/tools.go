// Package tools implements the quick-action tool roster and the weighted
// random pick over usage history.
package tools

import (
	"encoding/json"
	"math/rand"
)

// Defaults is the built-in roster of external AI tools a quick action can
// hand an instruction to.
var Defaults = []string{
	"GitHub Copilot",
	"ChatGPT",
	"Claude",
	"Gemini",
	"Cursor",
}

// Merge appends custom tool names to the defaults, skipping duplicates and
// preserving order.
func Merge(defaults, custom []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(custom))
	out := make([]string, 0, len(defaults)+len(custom))
	for _, lists := range [][]string{defaults, custom} {
		for _, name := range lists {
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// ParseCustom decodes the custom-tool list preference (a JSON string array).
// Malformed or empty input yields nil: preference reads degrade to defaults
// rather than erroring.
func ParseCustom(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil
	}
	return names
}

// PickWeighted finds the maximum usage count across candidates (a tool with
// no history counts as zero), collects every tool tied at that maximum, and
// picks one uniformly at random among them. On first run all tools are tied
// at zero, so the randomized tie-break spreads recommendations instead of
// always returning the first tool. Returns "" for an empty candidate list.
//
// The random source is a parameter so tests can inject a deterministic one
// and assert the candidate set rather than the specific pick.
func PickWeighted(candidates []string, counts map[string]int, rng *rand.Rand) string {
	if len(candidates) == 0 {
		return ""
	}

	max := 0
	for i, name := range candidates {
		if c := counts[name]; i == 0 || c > max {
			max = c
		}
	}

	var tied []string
	for _, name := range candidates {
		if counts[name] == max {
			tied = append(tied, name)
		}
	}

	return tied[rng.Intn(len(tied))]
}
