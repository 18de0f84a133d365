package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/metrics"
	"github.com/samircd4/bookspointer/internal/skiplog"
)

// ErrAccessGated reports that a book's content sits behind a login
// wall. Distinct from an empty page list, which means a single-page
// book.
var ErrAccessGated = errors.New("content requires login")

// pageLinkSelector matches the per-page anchors on both the landing
// page and the AJAX pager markup.
const pageLinkSelector = "a.ld-item-name"

// gateSelector marks content that requires an authenticated session.
const gateSelector = "div.ld-course-status-action a"

// ResolverConfig locates the site's dynamic pagination endpoint.
type ResolverConfig struct {
	AjaxURL    string
	PagerNonce string
	PageSize   int
}

// Resolver produces the ordered content-page URL sequence for a book,
// via either the AJAX pager or the landing page anchors.
type Resolver struct {
	fetcher *Fetcher
	cfg     ResolverConfig
	gated   skiplog.Sink
	logger  *zap.Logger
}

// NewResolver constructs a Resolver. Gated URLs are appended to sink.
func NewResolver(fetcher *Fetcher, cfg ResolverConfig, sink skiplog.Sink, logger *zap.Logger) *Resolver {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Resolver{
		fetcher: fetcher,
		cfg:     cfg,
		gated:   sink,
		logger:  logger,
	}
}

// ListingPages queries the AJAX pager for the given source book id and
// returns the ordered page URLs extracted from the markup fragment.
func (r *Resolver) ListingPages(ctx context.Context, bookID int) ([]string, error) {
	id := strconv.Itoa(bookID)
	size := strconv.Itoa(r.cfg.PageSize)

	params := url.Values{}
	params.Set("action", "ld30_ajax_pager")
	params.Set("pager_nonce", r.cfg.PagerNonce)
	params.Set("context", "course_content_shortcode")
	params.Set("course_id", id)
	params.Set("shortcode_instance[course_id]", id)
	params.Set("shortcode_instance[num]", size)

	body, err := r.fetcher.Get(ctx, r.cfg.AjaxURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("listing pages for book %d: %w", bookID, err)
	}

	var envelope struct {
		Data struct {
			Markup string `json:"markup"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode pager response for book %d: %w", bookID, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(envelope.Data.Markup)))
	if err != nil {
		return nil, fmt.Errorf("parse pager markup for book %d: %w", bookID, err)
	}
	return extractPageLinks(doc), nil
}

// LandingPages extracts the ordered page URLs from a book's landing
// page. A present login marker yields ErrAccessGated and a skip-log
// entry; an empty result means a single-page book.
func (r *Resolver) LandingPages(ctx context.Context, landingURL string) ([]string, error) {
	doc, err := r.fetcher.Landing(ctx, landingURL)
	if err != nil {
		return nil, fmt.Errorf("landing page %s: %w", landingURL, err)
	}

	if doc.Find(gateSelector).Length() > 0 {
		if err := r.gated.Record(landingURL); err != nil {
			r.logger.Error("record gated url failed",
				zap.String("url", landingURL),
				zap.Error(err),
			)
		}
		metrics.ObserveGatedBook()
		return nil, ErrAccessGated
	}

	links := extractPageLinks(doc)
	r.logger.Debug("page urls found",
		zap.String("url", landingURL),
		zap.Int("count", len(links)),
	)
	return links, nil
}

func extractPageLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find(pageLinkSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}
