// Package instructionservice coordinates the catalog and the state store
// behind the operations the API and MCP surfaces invoke.
package instructionservice

import (
	"context"
	"math/rand"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/tools"
)

// Preference keys with server-side defaults. Unset or unreadable values
// degrade to the default instead of erroring.
const (
	PrefDarkMode    = "dark_mode"
	PrefCustomTools = "custom_tools"
)

var prefDefaults = map[string]string{
	PrefDarkMode: "auto",
}

// ListItem is a lightweight record representation for list responses; the
// full content travels only in Detail.
type ListItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Filename      string   `json:"filename"`
	Tags          []string `json:"tags"`
	UsageCount    int      `json:"usage_count"`
	Favorite      bool     `json:"favorite"`
}

// Detail is the full representation of one instruction record.
type Detail struct {
	models.Record
	UsageCount int  `json:"usage_count"`
	Favorite   bool `json:"favorite"`
}

// Page is one cumulative page of filtered results.
type Page struct {
	Items   []ListItem `json:"instructions"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
}

// CategoryGroup is one category with its records in insertion order.
type CategoryGroup struct {
	Category string     `json:"category"`
	Items    []ListItem `json:"instructions"`
}

// ToolInfo is one quick-action tool with its usage count.
type ToolInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Service coordinates catalog queries and durable state.
type Service struct {
	cat *catalog.Catalog
	st  store.Store

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a new instruction service. rng drives the weighted tool
// pick; tests inject a deterministic source.
func NewService(cat *catalog.Catalog, st store.Store, rng *rand.Rand) *Service {
	return &Service{cat: cat, st: st, rng: rng}
}

// List applies the filter pipeline and returns the cumulative page for
// state: favorites sentinel, free-text query, tag conjunction, then the
// category drill-down, then pagination. A state.Instruction that matches no
// record does not affect the listing (stale deep links are a silent no-op).
func (s *Service) List(_ context.Context, state catalog.FilterState, pageSize, pageNumber int) (*Page, error) {
	favorites, err := s.favoriteSet()
	if err != nil {
		return nil, err
	}

	filtered := catalog.Filter(s.cat.Records(), state, favorites)
	if state.SelectedCategory != "" {
		n := filtered[:0:0]
		for _, r := range filtered {
			if r.Category == state.SelectedCategory {
				n = append(n, r)
			}
		}
		filtered = n
	}

	paged, hasMore := catalog.Paginate(filtered, pageSize, pageNumber)
	items, err := s.listItems(paged, favorites)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: len(filtered), HasMore: hasMore}, nil
}

// Get returns the full record for filename.
func (s *Service) Get(_ context.Context, filename string) (*Detail, error) {
	rec := s.cat.Lookup(filename)
	if rec == nil {
		return nil, apperr.ErrNotFound
	}
	counts, err := s.st.UsageCounts()
	if err != nil {
		return nil, err
	}
	fav, err := s.st.IsFavorite(filename)
	if err != nil {
		return nil, err
	}
	return &Detail{Record: *rec, UsageCount: counts[filename], Favorite: fav}, nil
}

// Select records that filename was opened: its usage count increments by
// one, monotonically. Returns the new count.
func (s *Service) Select(_ context.Context, filename string) (int, error) {
	if s.cat.Lookup(filename) == nil {
		return 0, apperr.ErrNotFound
	}
	return s.st.IncrementUsage(filename)
}

// ToggleFavorite flips favorite membership for filename and returns the new
// membership.
func (s *Service) ToggleFavorite(_ context.Context, filename string) (bool, error) {
	if s.cat.Lookup(filename) == nil {
		return false, apperr.ErrNotFound
	}
	return s.st.ToggleFavorite(filename)
}

// Favorites returns the favorited records in favoriting order. Favorites
// whose record left the corpus are skipped silently (stale-link semantics).
func (s *Service) Favorites(_ context.Context) ([]ListItem, error) {
	names, err := s.st.Favorites()
	if err != nil {
		return nil, err
	}
	counts, err := s.st.UsageCounts()
	if err != nil {
		return nil, err
	}
	var out []ListItem
	for _, name := range names {
		rec := s.cat.Lookup(name)
		if rec == nil {
			continue
		}
		out = append(out, newListItem(rec, counts[name], true))
	}
	return out, nil
}

// Tags returns every tag with its record count, most popular first.
func (s *Service) Tags(_ context.Context) []models.TagCount {
	return catalog.TagIndex(s.cat.Records())
}

// Categories returns the catalog partitioned by category in first-appearance
// order.
func (s *Service) Categories(_ context.Context) ([]CategoryGroup, error) {
	favorites, err := s.favoriteSet()
	if err != nil {
		return nil, err
	}
	counts, err := s.st.UsageCounts()
	if err != nil {
		return nil, err
	}

	order, groups := catalog.GroupByCategory(s.cat.Records())
	out := make([]CategoryGroup, 0, len(order))
	for _, cat := range order {
		items := make([]ListItem, 0, len(groups[cat]))
		for i := range groups[cat] {
			r := &groups[cat][i]
			_, fav := favorites[r.Filename]
			items = append(items, newListItem(r, counts[r.Filename], fav))
		}
		out = append(out, CategoryGroup{Category: cat, Items: items})
	}
	return out, nil
}

// TopUsed returns the n most-opened records.
func (s *Service) TopUsed(_ context.Context, n int) ([]models.UsageCount, error) {
	return s.st.TopUsed(n)
}

// Tools returns the merged tool roster (defaults plus the custom-tool
// preference) with usage counts.
func (s *Service) Tools(_ context.Context) ([]ToolInfo, error) {
	roster, counts, err := s.toolRoster()
	if err != nil {
		return nil, err
	}
	out := make([]ToolInfo, len(roster))
	for i, name := range roster {
		out[i] = ToolInfo{Name: name, Count: counts[name]}
	}
	return out, nil
}

// UseTool records one quick-action invocation of the named tool.
func (s *Service) UseTool(_ context.Context, name string) (int, error) {
	if name == "" {
		return 0, apperr.ErrInvalid
	}
	return s.st.IncrementToolUse(name)
}

// PickTool recommends a tool: the most-used one, with uniform random
// tie-break among equally-used candidates.
func (s *Service) PickTool(_ context.Context) (string, error) {
	roster, counts, err := s.toolRoster()
	if err != nil {
		return "", err
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return tools.PickWeighted(roster, counts, s.rng), nil
}

// Preference returns the stored value for key, falling back to the known
// default when unset.
func (s *Service) Preference(_ context.Context, key string) (string, error) {
	v, err := s.st.GetPreference(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return prefDefaults[key], nil
	}
	return v, nil
}

// SetPreference stores a preference value.
func (s *Service) SetPreference(_ context.Context, key, value string) error {
	if key == "" {
		return apperr.ErrInvalid
	}
	return s.st.SetPreference(key, value)
}

func (s *Service) toolRoster() ([]string, map[string]int, error) {
	raw, err := s.st.GetPreference(PrefCustomTools)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.st.ToolCounts()
	if err != nil {
		return nil, nil, err
	}
	return tools.Merge(tools.Defaults, tools.ParseCustom(raw)), counts, nil
}

func (s *Service) favoriteSet() (map[string]struct{}, error) {
	names, err := s.st.Favorites()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

func (s *Service) listItems(records []models.Record, favorites map[string]struct{}) ([]ListItem, error) {
	counts, err := s.st.UsageCounts()
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, len(records))
	for i := range records {
		r := &records[i]
		_, fav := favorites[r.Filename]
		items[i] = newListItem(r, counts[r.Filename], fav)
	}
	return items, nil
}

func newListItem(r *models.Record, usage int, favorite bool) ListItem {
	return ListItem{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Subcategories: nonNilSlice(r.Subcategories),
		Filename:      r.Filename,
		Tags:          nonNilSlice(r.Tags),
		UsageCount:    usage,
		Favorite:      favorite,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
