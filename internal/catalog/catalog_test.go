package catalog

import (
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{Filename: "x.md", Category: "frontend", Subcategories: []string{"react"}, Content: "component rules", Tags: []string{"frontend", "react"}},
		{Filename: "y.md", Category: "backend", Subcategories: []string{"go"}, Content: "service rules", Tags: []string{"backend", "go"}},
		{Filename: "z.md", Category: "backend", Subcategories: []string{"go", "http"}, Content: "handler rules", Tags: []string{"backend", "go", "http"}},
	}
}

func filenames(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Filename
	}
	return out
}

func TestFilter_ByTag(t *testing.T) {
	got := Filter(sampleRecords(), FilterState{SelectedTags: []string{"react"}}, nil)
	if !reflect.DeepEqual(filenames(got), []string{"x.md"}) {
		t.Errorf("filenames = %v, want [x.md]", filenames(got))
	}
}

func TestFilter_FavoritesSentinel(t *testing.T) {
	favs := map[string]struct{}{"y.md": {}}
	got := Filter(sampleRecords(), FilterState{SelectedTags: []string{FavoritesTag}}, favs)
	if !reflect.DeepEqual(filenames(got), []string{"y.md"}) {
		t.Errorf("filenames = %v, want [y.md]", filenames(got))
	}
}

func TestFilter_FavoritesSentinelWithTags(t *testing.T) {
	favs := map[string]struct{}{"y.md": {}, "x.md": {}}
	state := FilterState{SelectedTags: []string{FavoritesTag, "go"}}
	got := Filter(sampleRecords(), state, favs)
	if !reflect.DeepEqual(filenames(got), []string{"y.md"}) {
		t.Errorf("filenames = %v, want [y.md]", filenames(got))
	}
}

func TestFilter_QueryOverCategorySubcategoryContent(t *testing.T) {
	records := sampleRecords()

	// Category match, case-insensitive.
	got := Filter(records, FilterState{Query: "FRONT"}, nil)
	if !reflect.DeepEqual(filenames(got), []string{"x.md"}) {
		t.Errorf("category query: %v", filenames(got))
	}

	// Subcategory match.
	got = Filter(records, FilterState{Query: "http"}, nil)
	if !reflect.DeepEqual(filenames(got), []string{"z.md"}) {
		t.Errorf("subcategory query: %v", filenames(got))
	}

	// Content match.
	got = Filter(records, FilterState{Query: "service"}, nil)
	if !reflect.DeepEqual(filenames(got), []string{"y.md"}) {
		t.Errorf("content query: %v", filenames(got))
	}
}

func TestFilter_ConjunctiveClauses(t *testing.T) {
	state := FilterState{Query: "rules", SelectedTags: []string{"go", "http"}}
	got := Filter(sampleRecords(), state, nil)
	if !reflect.DeepEqual(filenames(got), []string{"z.md"}) {
		t.Errorf("filenames = %v, want [z.md]", filenames(got))
	}
}

func TestFilter_EmptyStateReturnsAll(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, FilterState{}, nil)
	if len(got) != len(records) {
		t.Errorf("len = %d, want %d", len(got), len(records))
	}
}

func TestFilter_Pure(t *testing.T) {
	records := sampleRecords()
	state := FilterState{Query: "rules", SelectedTags: []string{"backend"}}
	first := Filter(records, state, nil)
	second := Filter(records, state, nil)
	if !reflect.DeepEqual(filenames(first), filenames(second)) {
		t.Errorf("repeated filtering diverged: %v vs %v", filenames(first), filenames(second))
	}
	if !reflect.DeepEqual(records, sampleRecords()) {
		t.Error("Filter mutated its input")
	}
}

func TestTagIndex_CountsAndOrder(t *testing.T) {
	counts := TagIndex(sampleRecords())

	byTag := make(map[string]int, len(counts))
	for _, tc := range counts {
		byTag[tc.Tag] = tc.Count
	}
	want := map[string]int{"frontend": 1, "react": 1, "backend": 2, "go": 2, "http": 1}
	if !reflect.DeepEqual(byTag, want) {
		t.Errorf("counts = %v, want %v", byTag, want)
	}

	// Descending by count; ties keep first-appearance order.
	wantOrder := []string{"backend", "go", "frontend", "react", "http"}
	for i, tc := range counts {
		if tc.Tag != wantOrder[i] {
			t.Fatalf("order[%d] = %q, want %q (full: %v)", i, tc.Tag, wantOrder[i], counts)
		}
	}
}

func TestTagIndex_Reconciles(t *testing.T) {
	records := sampleRecords()
	counts := TagIndex(records)

	total := 0
	for _, tc := range counts {
		total += tc.Count
	}
	perRecord := 0
	for _, r := range records {
		perRecord += len(r.Tags)
	}
	if total != perRecord {
		t.Errorf("sum of counts = %d, want %d", total, perRecord)
	}
}

func TestGroupByCategory(t *testing.T) {
	order, groups := GroupByCategory(sampleRecords())
	if !reflect.DeepEqual(order, []string{"frontend", "backend"}) {
		t.Errorf("order = %v", order)
	}
	if !reflect.DeepEqual(filenames(groups["backend"]), []string{"y.md", "z.md"}) {
		t.Errorf("backend group = %v", filenames(groups["backend"]))
	}
}

func TestPaginate_CumulativePrefix(t *testing.T) {
	records := sampleRecords()

	page1, more := Paginate(records, 2, 1)
	if len(page1) != 2 || !more {
		t.Fatalf("page1 len = %d, more = %v", len(page1), more)
	}

	page2, more := Paginate(records, 2, 2)
	if len(page2) != 3 || more {
		t.Fatalf("page2 len = %d, more = %v", len(page2), more)
	}

	// Monotonicity: each page is a prefix of the next.
	for i := range page1 {
		if page1[i].Filename != page2[i].Filename {
			t.Errorf("page1 is not a prefix of page2 at %d", i)
		}
	}
}

func TestPaginate_HasMoreExactBoundary(t *testing.T) {
	records := sampleRecords()
	page, more := Paginate(records, 3, 1)
	if len(page) != 3 {
		t.Fatalf("len = %d", len(page))
	}
	if more {
		t.Error("hasMore must be false when the slice covers the filtered set")
	}
}

func TestCatalog_LookupAndReplace(t *testing.T) {
	c := New(sampleRecords())
	if c.Lookup("y.md") == nil {
		t.Fatal("expected y.md")
	}
	if c.Lookup("missing.md") != nil {
		t.Fatal("expected nil for unknown filename")
	}

	c.Replace([]models.Record{{Filename: "only.md", Category: "misc"}})
	if c.Len() != 1 || c.Lookup("y.md") != nil {
		t.Error("Replace should swap the whole record set")
	}
}
