package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGet_ScrapesTitleAndDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<title>Style Guide</title>
			<meta name="description" content="A guide to style.">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	svc := NewService(testutil.TestStore(t), discardLogger())
	p, err := svc.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Title != "Style Guide" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Description != "A guide to style." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Failed {
		t.Error("successful fetch marked failed")
	}
}

func TestGet_FailureYieldsPlaceholderAndIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(testutil.TestStore(t), discardLogger())

	p, err := svc.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !p.Failed || p.Title != ErrorTitle {
		t.Errorf("placeholder = %+v", p)
	}

	// Second lookup must come from cache, not retry the fetch.
	if _, err := svc.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("fetch count = %d, want 1", hits.Load())
	}
}

func TestGet_CacheHit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><head><title>Once</title></head></html>`))
	}))
	defer srv.Close()

	svc := NewService(testutil.TestStore(t), discardLogger())
	for i := 0; i < 3; i++ {
		if _, err := svc.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("fetch count = %d, want 1", hits.Load())
	}
}

func TestGet_InvalidURL(t *testing.T) {
	svc := NewService(testutil.TestStore(t), discardLogger())

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/x"} {
		_, err := svc.Get(context.Background(), raw)
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Get(%q) err = %v, want ErrInvalid", raw, err)
		}
	}
}
