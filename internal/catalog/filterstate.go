package catalog

import (
	"net/url"
	"strings"
)

// FavoritesTag is the sentinel tag that restricts results to the caller's
// favorites instead of matching a record tag.
const FavoritesTag = "favorites"

// FilterState is the sole input to the filtering pipeline. It round-trips
// through URL query parameters so a filtered view is shareable: a link that
// encodes a FilterState reproduces the same view when decoded.
type FilterState struct {
	Query            string
	SelectedTags     []string
	SelectedCategory string
	// Instruction is the filename of the currently open record, if any.
	// A value that matches no record is a silent no-op, not an error.
	Instruction string
}

// ParseValues decodes a FilterState from URL query parameters.
func ParseValues(v url.Values) FilterState {
	var tags []string
	if raw := v.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return FilterState{
		Query:            v.Get("q"),
		SelectedTags:     tags,
		SelectedCategory: v.Get("category"),
		Instruction:      v.Get("instruction"),
	}
}

// Values encodes the state back to URL query parameters. Empty clauses are
// omitted so encoding an empty state yields an empty query string.
func (s FilterState) Values() url.Values {
	v := url.Values{}
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	if len(s.SelectedTags) > 0 {
		v.Set("tags", strings.Join(s.SelectedTags, ","))
	}
	if s.SelectedCategory != "" {
		v.Set("category", s.SelectedCategory)
	}
	if s.Instruction != "" {
		v.Set("instruction", s.Instruction)
	}
	return v
}

// IsZero reports whether no clause is active.
func (s FilterState) IsZero() bool {
	return s.Query == "" && len(s.SelectedTags) == 0 &&
		s.SelectedCategory == "" && s.Instruction == ""
}
