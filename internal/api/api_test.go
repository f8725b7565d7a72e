package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/indexer"
	"github.com/starford/ansuz/internal/instructionservice"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/preview"
	"github.com/starford/ansuz/internal/testutil"
)

var testFiles = map[string]string{
	"frontend/react/components.md": "---\ntitle: Component Rules\ntags:\n  - reviewed\n---\nKeep React components small.\n",
	"backend/go/services.md":       "---\ntitle: Service Rules\n---\nStructure Go services around interfaces.\n",
	"backend/go/errors.md":         "Wrap errors with context.\n",
}

// testEnv sets up a content tree, catalog, state store, service, and router.
// authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()

	_, fs := testutil.TestContent(t, testFiles)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records, err := indexer.Build(fs, logger)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	db := testutil.TestStore(t)
	svc := instructionservice.NewService(catalog.New(records), db, rand.New(rand.NewSource(1)))
	previews := preview.NewService(db, logger)

	return NewRouter(svc, previews, authToken != "", authToken, nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (body %s)", method, path, err, w.Body.String())
		}
	}
	return w
}

func TestListInstructions_All(t *testing.T) {
	router := testEnv(t, "")

	var page InstructionPage
	w := doJSON(t, router, http.MethodGet, "/instructions", &page)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if page.Total != 3 || len(page.Items) != 3 || page.HasMore {
		t.Errorf("page = total %d, items %d, hasMore %v", page.Total, len(page.Items), page.HasMore)
	}
}

func TestListInstructions_TagFilter(t *testing.T) {
	router := testEnv(t, "")

	var page InstructionPage
	doJSON(t, router, http.MethodGet, "/instructions?tags=react", &page)
	if len(page.Items) != 1 || page.Items[0].Filename != "components.md" {
		t.Errorf("items = %+v", page.Items)
	}
}

func TestListInstructions_QueryAndCategory(t *testing.T) {
	router := testEnv(t, "")

	var page InstructionPage
	doJSON(t, router, http.MethodGet, "/instructions?q=interfaces&category=backend", &page)
	if len(page.Items) != 1 || page.Items[0].Filename != "services.md" {
		t.Errorf("items = %+v", page.Items)
	}

	// Category drill-down alone.
	doJSON(t, router, http.MethodGet, "/instructions?category=backend", &page)
	if page.Total != 2 {
		t.Errorf("backend total = %d, want 2", page.Total)
	}
}

func TestListInstructions_CumulativePagination(t *testing.T) {
	router := testEnv(t, "")

	var page InstructionPage
	doJSON(t, router, http.MethodGet, "/instructions?page=1&page_size=2", &page)
	if len(page.Items) != 2 || !page.HasMore {
		t.Fatalf("page1 items = %d, hasMore = %v", len(page.Items), page.HasMore)
	}

	doJSON(t, router, http.MethodGet, "/instructions?page=2&page_size=2", &page)
	if len(page.Items) != 3 || page.HasMore {
		t.Errorf("page2 items = %d, hasMore = %v (pagination is cumulative)", len(page.Items), page.HasMore)
	}
}

func TestGetInstruction(t *testing.T) {
	router := testEnv(t, "")

	var detail InstructionDetail
	w := doJSON(t, router, http.MethodGet, "/instructions/services.md", &detail)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if detail.Title != "Service Rules" || detail.Content == "" {
		t.Errorf("detail = %+v", detail)
	}

	w = doJSON(t, router, http.MethodGet, "/instructions/missing.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", w.Code)
	}
}

func TestSelectInstruction_IncrementsUsage(t *testing.T) {
	router := testEnv(t, "")

	var resp SelectResponse
	for want := 1; want <= 3; want++ {
		doJSON(t, router, http.MethodPost, "/instructions/errors.md/select", &resp)
		if resp.Count != want {
			t.Errorf("count after %d selects = %d", want, resp.Count)
		}
	}

	var detail InstructionDetail
	doJSON(t, router, http.MethodGet, "/instructions/errors.md", &detail)
	if detail.UsageCount != 3 {
		t.Errorf("usage in detail = %d, want 3", detail.UsageCount)
	}

	w := doJSON(t, router, http.MethodPost, "/instructions/missing.md/select", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("select missing status = %d", w.Code)
	}
}

func TestFavorites_ToggleAndSentinelFilter(t *testing.T) {
	router := testEnv(t, "")

	var toggle FavoriteToggleResponse
	doJSON(t, router, http.MethodPost, "/favorites/services.md", &toggle)
	if !toggle.Favorite {
		t.Fatalf("first toggle = %+v", toggle)
	}

	var page InstructionPage
	doJSON(t, router, http.MethodGet, "/instructions?tags=favorites", &page)
	if len(page.Items) != 1 || page.Items[0].Filename != "services.md" {
		t.Errorf("favorites filter = %+v", page.Items)
	}

	var favs []InstructionListItem
	doJSON(t, router, http.MethodGet, "/favorites", &favs)
	if len(favs) != 1 || !favs[0].Favorite {
		t.Errorf("favorites list = %+v", favs)
	}

	doJSON(t, router, http.MethodPost, "/favorites/services.md", &toggle)
	if toggle.Favorite {
		t.Fatalf("second toggle = %+v", toggle)
	}
	doJSON(t, router, http.MethodGet, "/instructions?tags=favorites", &page)
	if len(page.Items) != 0 {
		t.Errorf("favorites after round trip = %+v", page.Items)
	}
}

func TestListTags(t *testing.T) {
	router := testEnv(t, "")

	var resp TagListResponse
	doJSON(t, router, http.MethodGet, "/tags", &resp)

	byTag := make(map[string]int)
	for _, tc := range resp.Tags {
		byTag[tc.Tag] = tc.Count
	}
	if byTag["backend"] != 2 || byTag["go"] != 2 || byTag["react"] != 1 {
		t.Errorf("tag counts = %v", byTag)
	}
	// Ordered by descending count.
	if len(resp.Tags) < 2 || resp.Tags[0].Count < resp.Tags[1].Count {
		t.Errorf("tags not ordered by count: %v", resp.Tags)
	}
}

func TestListCategories(t *testing.T) {
	router := testEnv(t, "")

	var resp CategoryListResponse
	doJSON(t, router, http.MethodGet, "/categories", &resp)
	if len(resp.Categories) != 2 {
		t.Fatalf("categories = %+v", resp.Categories)
	}
	for _, g := range resp.Categories {
		if g.Category == "backend" && len(g.Items) != 2 {
			t.Errorf("backend group = %+v", g.Items)
		}
	}
}

func TestTopUsed(t *testing.T) {
	router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/instructions/errors.md/select", nil)
	doJSON(t, router, http.MethodPost, "/instructions/errors.md/select", nil)
	doJSON(t, router, http.MethodPost, "/instructions/services.md/select", nil)

	var top []models.UsageCount
	doJSON(t, router, http.MethodGet, "/stats/top?limit=1", &top)
	if len(top) != 1 || top[0].Filename != "errors.md" || top[0].Count != 2 {
		t.Errorf("top = %v", top)
	}
}

func TestTools_UseAndPick(t *testing.T) {
	router := testEnv(t, "")

	var use ToolUseResponse
	doJSON(t, router, http.MethodPost, "/tools/Claude/use", &use)
	doJSON(t, router, http.MethodPost, "/tools/Claude/use", &use)
	if use.Count != 2 {
		t.Errorf("use count = %d", use.Count)
	}

	// Claude is now the sole maximum, so the pick is deterministic.
	var pick ToolPickResponse
	doJSON(t, router, http.MethodGet, "/tools/pick", &pick)
	if pick.Name != "Claude" {
		t.Errorf("pick = %q, want Claude", pick.Name)
	}

	var roster []instructionservice.ToolInfo
	doJSON(t, router, http.MethodGet, "/tools", &roster)
	found := false
	for _, ti := range roster {
		if ti.Name == "Claude" && ti.Count == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("roster = %+v", roster)
	}
}

func TestPreferences(t *testing.T) {
	router := testEnv(t, "")

	var pref PreferenceResponse
	doJSON(t, router, http.MethodGet, "/prefs/dark_mode", &pref)
	if pref.Value != "auto" {
		t.Errorf("default dark_mode = %q, want auto", pref.Value)
	}

	req := httptest.NewRequest(http.MethodPut, "/prefs/dark_mode", strings.NewReader(`{"value":"dark"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, body = %s", w.Code, w.Body.String())
	}

	doJSON(t, router, http.MethodGet, "/prefs/dark_mode", &pref)
	if pref.Value != "dark" {
		t.Errorf("dark_mode = %q, want dark", pref.Value)
	}
}

func TestShare_CanonicalQuery(t *testing.T) {
	router := testEnv(t, "")

	var resp ShareResponse
	doJSON(t, router, http.MethodGet, "/share?tags=go,backend&q=errors", &resp)
	if resp.Query != "q=errors&tags=go%2Cbackend" {
		t.Errorf("share query = %q", resp.Query)
	}
}

func TestAuth_TokenMode(t *testing.T) {
	router := testEnv(t, "secret")

	w := doJSON(t, router, http.MethodGet, "/instructions", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/instructions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w2.Code)
	}
}
