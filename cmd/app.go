package cmd

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/catalog"
	"github.com/samircd4/bookspointer/internal/config"
	"github.com/samircd4/bookspointer/internal/ledger"
	"github.com/samircd4/bookspointer/internal/publish"
	"github.com/samircd4/bookspointer/internal/scrape"
	"github.com/samircd4/bookspointer/internal/skiplog"
	"github.com/samircd4/bookspointer/internal/source"
	"github.com/samircd4/bookspointer/internal/syncer"
)

// App bundles the loaded configuration and shared services the
// commands build their pipelines from.
type App struct {
	Config config.Config
	Logger *zap.Logger
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// Catalog builds a client for the internal book catalog API.
func (a *App) Catalog() *catalog.Client {
	return catalog.New(a.Config.Catalog.BaseURL, a.Config.FetchTimeout(), a.Logger)
}

// Orchestrator assembles the crawl pipeline: fetcher, pagination
// resolver, skip-log sink, and catalog writer.
func (a *App) Orchestrator() (*scrape.Orchestrator, error) {
	fetcher, err := scrape.NewFetcher(scrape.FetcherConfig{
		UserAgent: a.Config.Site.UserAgent,
		Referer:   a.Config.Site.BaseURL,
		Cookie:    a.Config.Site.Cookie,
		Timeout:   a.Config.FetchTimeout(),
		CacheSize: a.Config.Crawl.PageCacheSize,
	}, a.Logger)
	if err != nil {
		return nil, err
	}

	resolver := scrape.NewResolver(fetcher, scrape.ResolverConfig{
		AjaxURL:    strings.TrimSuffix(a.Config.Site.BaseURL, "/") + a.Config.Site.AjaxPath,
		PagerNonce: a.Config.Site.PagerNonce,
	}, skiplog.NewFileSink(a.Config.Crawl.SkipLogPath), a.Logger)

	return scrape.New(fetcher, resolver, a.Catalog(), scrape.Config{
		PageConcurrency: a.Config.Crawl.PageConcurrency,
		MultiPage:       a.Config.Crawl.MultiPage,
	}, a.Logger), nil
}

// SyncManager assembles the author reconciliation pipeline against the
// spreadsheet ledger.
func (a *App) SyncManager(ctx context.Context) (*syncer.Manager, error) {
	led, err := ledger.NewSheets(ctx,
		a.Config.Sheet.SpreadsheetID,
		a.Config.Sheet.Worksheet,
		a.Config.Sheet.CredentialsFile,
	)
	if err != nil {
		return nil, err
	}

	src := source.New(
		a.Config.Source.BaseURL,
		a.Config.Source.UserID,
		a.Config.Source.Device,
		a.Config.Source.PageSize,
		a.Config.FetchTimeout(),
		a.Logger,
	)

	return syncer.NewManager(src, led, a.Catalog(), a.Config.Source.MaxPages, a.Logger), nil
}

// Publisher assembles the posting pipeline with a time-seeded token
// rotation.
func (a *App) Publisher() *publish.Publisher {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return publish.New(publish.Config{
		CreateBookURL: a.Config.Publisher.CreateBookURL,
		Timeout:       a.Config.FetchTimeout(),
	}, a.Catalog(), rng, a.Logger)
}
