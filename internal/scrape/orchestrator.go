package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samircd4/bookspointer/internal/catalog"
	"github.com/samircd4/bookspointer/internal/category"
	"github.com/samircd4/bookspointer/internal/metrics"
)

// contentSeparator joins page contents in aggregate mode. The order of
// pages is the in-catalog reading order and must not be re-sorted.
const contentSeparator = "<br/>"

// Cataloger is the slice of the catalog API the orchestrator needs.
type Cataloger interface {
	CreateBook(ctx context.Context, book catalog.Book) (int, error)
}

// Config controls the crawl orchestrator.
type Config struct {
	// PageConcurrency bounds parallel content-page fetches per book.
	PageConcurrency int
	// MultiPage selects split mode (one book per page) over the
	// default aggregate mode.
	MultiPage bool
}

// Orchestrator walks author -> book list -> book detail -> page
// content and hands finished books to the catalog.
type Orchestrator struct {
	fetcher  *Fetcher
	resolver *Resolver
	books    Cataloger
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Orchestrator.
func New(fetcher *Fetcher, resolver *Resolver, books Cataloger, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 1
	}
	return &Orchestrator{
		fetcher:  fetcher,
		resolver: resolver,
		books:    books,
		cfg:      cfg,
		logger:   logger,
	}
}

// CrawlAuthor scrapes every book on an author page and persists the
// results. Failures are localized: a broken book never aborts the
// author, a broken page never aborts its book.
func (o *Orchestrator) CrawlAuthor(ctx context.Context, authorURL string, authorID int) error {
	refs, err := o.BookList(ctx, authorURL)
	if err != nil {
		return err
	}
	o.logger.Info("books found for author",
		zap.Int("author_id", authorID),
		zap.Int("count", len(refs)),
	)

	for _, ref := range refs {
		books, err := o.BookDetails(ctx, ref, authorID)
		if err != nil {
			o.logger.Error("book skipped",
				zap.String("title", ref.Title),
				zap.Int("author_id", authorID),
				zap.Error(err),
			)
			continue
		}
		for _, book := range books {
			if _, err := o.books.CreateBook(ctx, o.toCatalog(book)); err != nil {
				o.logger.Error("persist book failed",
					zap.String("title", book.Title),
					zap.Int("author_id", authorID),
					zap.Error(err),
				)
				continue
			}
			metrics.ObserveBook("persisted")
		}
	}
	return nil
}

// BookList extracts the book links from an author page.
func (o *Orchestrator) BookList(ctx context.Context, authorURL string) ([]BookRef, error) {
	doc, err := o.fetcher.HTML(ctx, authorURL)
	if err != nil {
		return nil, fmt.Errorf("author page %s: %w", authorURL, err)
	}

	var refs []BookRef
	doc.Find("article.entry-archive").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.entry-title-link").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		title, author := splitTitleAuthor(strings.TrimSpace(link.Text()))
		refs = append(refs, BookRef{Title: title, Author: author, Link: href})
	})
	return refs, nil
}

// BookDetails scrapes one book. It returns zero books for gated or
// empty-content books, one book in aggregate mode, and one book per
// non-empty page in split mode.
func (o *Orchestrator) BookDetails(ctx context.Context, ref BookRef, authorID int) ([]Book, error) {
	doc, err := o.fetcher.Landing(ctx, ref.Link)
	if err != nil {
		return nil, err
	}

	base, err := o.extractBook(doc, ref, authorID)
	if err != nil {
		return nil, err
	}

	pages, err := o.resolver.LandingPages(ctx, ref.Link)
	if err != nil {
		if errors.Is(err, ErrAccessGated) {
			o.logger.Warn("book requires login, skipped",
				zap.String("title", base.Title),
				zap.String("url", ref.Link),
			)
			metrics.ObserveBook("gated")
			return nil, nil
		}
		return nil, err
	}

	contents := o.fetchPages(ctx, pages, authorID)

	if o.cfg.MultiPage {
		return o.splitBooks(base, pages, contents), nil
	}
	return o.aggregateBook(base, contents), nil
}

// extractBook pulls title, labels, series, and the source id off the
// landing page. A missing heading or content container is fatal for
// this book only.
func (o *Orchestrator) extractBook(doc *goquery.Document, ref BookRef, authorID int) (Book, error) {
	heading := strings.TrimSpace(doc.Find("h1.page-header-title").First().Text())
	if heading == "" {
		return Book{}, fmt.Errorf("book %s: missing page header", ref.Link)
	}
	title, _ := splitTitleAuthor(heading)

	var labels []string
	doc.Find("span.entry-terms-ld_course_category a").Each(func(_ int, s *goquery.Selection) {
		if label := strings.TrimSpace(s.Text()); label != "" {
			labels = append(labels, label)
		}
	})

	series := strings.TrimSpace(doc.Find("span.entry-terms-series a").First().Text())
	if series == "" {
		series = strings.Join(labels, ", ")
	}

	idAttr := doc.Find("div.ld-tab-content").First().AttrOr("id", "")
	segments := strings.Split(idAttr, "-")
	bookID, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil {
		return Book{}, fmt.Errorf("book %s: bad content container id %q", ref.Link, idAttr)
	}

	return Book{
		BookID:     bookID,
		Title:      stripIndexPrefix(title),
		Author:     ref.Author,
		AuthorID:   authorID,
		Labels:     labels,
		CategoryID: category.Classify(labels),
		Series:     series,
		URL:        ref.Link,
	}, nil
}

// fetchPages retrieves page contents with bounded parallelism,
// reassembled in discovery order. A failed page contributes nothing.
func (o *Orchestrator) fetchPages(ctx context.Context, pages []string, authorID int) []pageContent {
	contents := make([]pageContent, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.PageConcurrency)
	for i, pageURL := range pages {
		i, pageURL := i, pageURL
		g.Go(func() error {
			pc, err := o.fetchPage(gctx, pageURL)
			if err != nil {
				o.logger.Warn("could not extract content",
					zap.String("url", pageURL),
					zap.Int("page", i+1),
					zap.Int("author_id", authorID),
					zap.Error(err),
				)
				metrics.ObservePageFetch("failed")
				return nil
			}
			contents[i] = pc
			metrics.ObservePageFetch("ok")
			o.logger.Debug("page processed",
				zap.Int("page", i+1),
				zap.Int("total", len(pages)),
				zap.Int("author_id", authorID),
			)
			return nil
		})
	}
	// Workers never return errors; partial failure is absorbed per page.
	_ = g.Wait()

	return contents
}

// fetchPage extracts the content fragment and page-local title from a
// single content page. Interactive controls are stripped from the
// fragment; closing paragraph tags gain a line break for formatting.
func (o *Orchestrator) fetchPage(ctx context.Context, pageURL string) (pageContent, error) {
	body, err := o.fetcher.Get(ctx, pageURL)
	if err != nil {
		return pageContent{}, err
	}

	html := strings.ReplaceAll(string(body), "</p>", "</p><br/>")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pageContent{}, fmt.Errorf("parse page %s: %w", pageURL, err)
	}

	fragment := doc.Find("div.ld-tabs-content > div").First()
	if fragment.Length() == 0 {
		return pageContent{}, fmt.Errorf("page %s: missing content container", pageURL)
	}
	fragment.Find("button").Remove()

	content, err := goquery.OuterHtml(fragment)
	if err != nil {
		return pageContent{}, fmt.Errorf("render page %s: %w", pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("div.ld-focus-content h1").First().Text())
	return pageContent{Title: title, Content: content}, nil
}

// splitBooks emits one book per non-empty page, sharing the base
// book's author, category, series, and source id.
func (o *Orchestrator) splitBooks(base Book, pages []string, contents []pageContent) []Book {
	var books []Book
	for i, pc := range contents {
		if pc.Content == "" {
			continue
		}
		book := base
		book.Title = stripIndexPrefix(pc.Title)
		book.Content = pc.Content
		book.URL = pages[i]
		books = append(books, book)
	}
	return books
}

// aggregateBook concatenates page contents in discovery order. A book
// with no content at all is discarded, never persisted.
func (o *Orchestrator) aggregateBook(base Book, contents []pageContent) []Book {
	var parts []string
	for _, pc := range contents {
		if pc.Content != "" {
			parts = append(parts, pc.Content)
		}
	}

	base.Content = strings.Join(parts, contentSeparator)
	if base.Content == "" {
		o.logger.Info("book discarded: empty content",
			zap.String("title", base.Title),
			zap.String("url", base.URL),
		)
		metrics.ObserveBook("discarded")
		return nil
	}
	return []Book{base}
}

// toCatalog converts an in-flight book to its catalog representation.
func (o *Orchestrator) toCatalog(b Book) catalog.Book {
	return catalog.Book{
		BookID:     b.BookID,
		Title:      b.Title,
		Author:     b.Author,
		AuthorID:   b.AuthorID,
		Category:   strings.Join(b.Labels, ","),
		CategoryID: b.CategoryID,
		BookLink:   b.URL,
		Content:    b.Content,
	}
}
