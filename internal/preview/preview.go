// Package preview enriches external reference links with title/description
// metadata scraped from the target page, caching results (including
// failures) so a link is fetched at most once.
package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

const (
	// ErrorTitle is the placeholder stored for links that could not be
	// fetched or parsed. Cached identically to a success so the link is not
	// retried on every page load.
	ErrorTitle = "Error loading resource"

	fetchTimeout  = 10 * time.Second
	maxBodyBytes  = 2 << 20
	fetchesPerSec = 2
)

// Service resolves link previews through the cache, fetching on miss.
type Service struct {
	store   store.Store
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService creates a preview service. Outbound fetches are rate limited so
// a page full of uncached links does not hammer external hosts.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:   st,
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(fetchesPerSec), fetchesPerSec),
		logger:  logger,
	}
}

// Get returns the preview for rawURL, from cache when present. A fetch or
// parse failure is converted into the placeholder preview and cached; it is
// never surfaced as an error to the caller. Only the URL itself is
// validated.
func (s *Service) Get(ctx context.Context, rawURL string) (*models.LinkPreview, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url %q", apperr.ErrInvalid, rawURL)
	}

	cached, err := s.store.GetLinkPreview(rawURL)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	p := s.fetch(ctx, rawURL)
	if err := s.store.PutLinkPreview(p); err != nil {
		s.logger.Warn("preview: cache write failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()))
	}
	return &p, nil
}

// fetch retrieves and scrapes one page. All failure paths collapse into the
// placeholder preview.
func (s *Service) fetch(ctx context.Context, rawURL string) models.LinkPreview {
	placeholder := models.LinkPreview{
		URL:       rawURL,
		Title:     ErrorTitle,
		Failed:    true,
		FetchedAt: time.Now(),
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return placeholder
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return placeholder
	}
	req.Header.Set("User-Agent", "ansuz-link-preview/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("preview: fetch failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()))
		return placeholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return placeholder
	}

	title, desc, err := scrape(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil || title == "" {
		return placeholder
	}

	return models.LinkPreview{
		URL:         rawURL,
		Title:       title,
		Description: desc,
		FetchedAt:   time.Now(),
	}
}

// scrape extracts the page title and meta description from HTML.
func scrape(r io.Reader) (title, description string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	if d, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		description = strings.TrimSpace(d)
	} else if d, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		description = strings.TrimSpace(d)
	}

	return title, description, nil
}
