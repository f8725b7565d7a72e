// Package catalog holds the in-memory instruction catalog and the pure
// query pipeline over it: tag counting, filtering, category grouping, and
// cumulative pagination.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/models"
)

// Catalog is the loaded record set. Replace swaps the whole set atomically,
// which is how live reload publishes a rebuilt index to readers.
type Catalog struct {
	mu         sync.RWMutex
	records    []models.Record
	byFilename map[string]*models.Record
}

// New creates a catalog from the given records.
func New(records []models.Record) *Catalog {
	c := &Catalog{}
	c.Replace(records)
	return c
}

// LoadFile reads a catalog previously written by the indexer.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(records), nil
}

// Replace swaps in a new record set.
func (c *Catalog) Replace(records []models.Record) {
	byFilename := make(map[string]*models.Record, len(records))
	for i := range records {
		// First occurrence wins on filename collision; Build already
		// warned about the duplicate.
		if _, ok := byFilename[records[i].Filename]; !ok {
			byFilename[records[i].Filename] = &records[i]
		}
	}
	c.mu.Lock()
	c.records = records
	c.byFilename = byFilename
	c.mu.Unlock()
}

// Records returns the current record set. Callers must not mutate it.
func (c *Catalog) Records() []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Lookup returns the record with the given filename, or nil.
func (c *Catalog) Lookup(filename string) *models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byFilename[filename]
}

// TagIndex counts, for every tag appearing on any record, how many records
// carry it. The result is ordered by descending count; ties keep first-
// appearance order (stable sort).
func TagIndex(records []models.Record) []models.TagCount {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		for _, t := range r.Tags {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	out := make([]models.TagCount, len(order))
	for i, t := range order {
		out[i] = models.TagCount{Tag: t, Count: counts[t]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Filter returns the records passing every active clause of state, in input
// order. The three clauses are conjunctive; an empty query or empty tag
// selection is vacuously true for its clause. Pure: identical inputs yield
// identical output and the input slice is never mutated.
func Filter(records []models.Record, state FilterState, favorites map[string]struct{}) []models.Record {
	query := strings.ToLower(state.Query)
	favoritesOnly := false
	var tags []string
	for _, t := range state.SelectedTags {
		if t == FavoritesTag {
			favoritesOnly = true
			continue
		}
		tags = append(tags, t)
	}

	var out []models.Record
	for _, r := range records {
		if favoritesOnly {
			if _, ok := favorites[r.Filename]; !ok {
				continue
			}
		}
		if query != "" && !matchesQuery(&r, query) {
			continue
		}
		if !hasAllTags(&r, tags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchesQuery reports whether the lowercased query is a substring of the
// record's category, any subcategory, or its content.
func matchesQuery(r *models.Record, query string) bool {
	if strings.Contains(strings.ToLower(r.Category), query) {
		return true
	}
	for _, s := range r.Subcategories {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Content), query)
}

func hasAllTags(r *models.Record, tags []string) bool {
	for _, t := range tags {
		if !r.HasTag(t) {
			return false
		}
	}
	return true
}

// GroupByCategory partitions records into a per-category mapping, preserving
// per-category insertion order. The returned key list is ordered by first
// appearance so callers can render deterministically.
func GroupByCategory(records []models.Record) ([]string, map[string][]models.Record) {
	groups := make(map[string][]models.Record)
	var order []string
	for _, r := range records {
		if _, ok := groups[r.Category]; !ok {
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}
	return order, groups
}

// Paginate returns the cumulative slice [0, pageNumber*pageSize) of filtered
// together with whether more records remain. Pagination is append-only
// (infinite scroll), not a sliding window.
func Paginate(filtered []models.Record, pageSize, pageNumber int) ([]models.Record, bool) {
	if pageSize <= 0 || pageNumber <= 0 {
		return nil, len(filtered) > 0
	}
	end := pageNumber * pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[:end], end < len(filtered)
}
