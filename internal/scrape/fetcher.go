// Package scrape implements the content-site side of the pipeline:
// authenticated page fetching, pagination discovery, and the crawl
// orchestrator that turns author pages into catalog-ready books.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// FetcherConfig carries the fixed header/cookie profile the site
// expects plus client-side limits.
type FetcherConfig struct {
	UserAgent string
	Referer   string
	Cookie    string
	Timeout   time.Duration
	CacheSize int
}

// Fetcher performs authenticated HTTP retrieval against the content
// site. Landing pages are cached because detail extraction and
// pagination discovery both need the same document.
type Fetcher struct {
	collector *colly.Collector
	cfg       FetcherConfig
	cache     *lru.Cache[string, []byte]
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher with a synchronous colly collector.
func NewFetcher(cfg FetcherConfig, logger *zap.Logger) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)

	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("init page cache: %w", err)
	}

	return &Fetcher{
		collector: collector,
		cfg:       cfg,
		cache:     cache,
		logger:    logger,
	}, nil
}

// Get fetches rawURL and returns the response body. Each call uses a
// collector clone so response capture stays call-local.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.collector.Clone()

	var body []byte
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "*/*")
		r.Headers.Set("Accept-Language", "en-BD,en-US;q=0.9,en;q=0.8")
		r.Headers.Set("X-Requested-With", "XMLHttpRequest")
		if f.cfg.Referer != "" {
			r.Headers.Set("Referer", f.cfg.Referer)
		}
		if f.cfg.Cookie != "" {
			r.Headers.Set("Cookie", f.cfg.Cookie)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode == http.StatusOK {
			body = r.Body
			return
		}
		fetchErr = fmt.Errorf("fetch %s: status %d", rawURL, r.StatusCode)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", rawURL, err)
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}

// Landing fetches a book landing page through the LRU cache and parses
// it into a document.
func (f *Fetcher) Landing(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if body, ok := f.cache.Get(rawURL); ok {
		return parseDocument(body)
	}

	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	f.cache.Add(rawURL, body)
	return parseDocument(body)
}

// HTML fetches rawURL uncached and parses it into a document.
func (f *Fetcher) HTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return parseDocument(body)
}

func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
