// Package syncer reconciles the external author source with the
// spreadsheet ledger and the internal catalog.
package syncer

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/catalog"
	"github.com/samircd4/bookspointer/internal/ledger"
	"github.com/samircd4/bookspointer/internal/metrics"
	"github.com/samircd4/bookspointer/internal/source"
)

// defaultMaxPages caps pagination against a source that never returns
// an empty page.
const defaultMaxPages = 100

// AuthorSource pages through the external author records.
type AuthorSource interface {
	Authors(ctx context.Context, page int) ([]source.Author, error)
}

// AuthorCatalog is the slice of the catalog API the sync manager
// needs.
type AuthorCatalog interface {
	CreateAuthor(ctx context.Context, author catalog.Author) error
}

// Manager drives source -> ledger -> catalog reconciliation.
type Manager struct {
	src      AuthorSource
	ledger   ledger.Ledger
	cat      AuthorCatalog
	maxPages int
	logger   *zap.Logger
}

// NewManager constructs a Manager. maxPages bounds source pagination;
// zero means the default ceiling.
func NewManager(src AuthorSource, led ledger.Ledger, cat AuthorCatalog, maxPages int, logger *zap.Logger) *Manager {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Manager{src: src, ledger: led, cat: cat, maxPages: maxPages, logger: logger}
}

// Reconcile appends source authors missing from the ledger, then
// promotes every unscraped ledger row into the catalog. The scraped
// flag is flipped before the catalog write, so a crash between the two
// loses the author rather than duplicating it; re-running on a fully
// synced ledger appends nothing and creates nothing.
func (m *Manager) Reconcile(ctx context.Context) error {
	authors, err := m.fetchAll(ctx)
	if err != nil {
		return err
	}

	added, err := m.appendMissing(ctx, authors)
	if err != nil {
		return err
	}
	m.logger.Info("ledger updated",
		zap.Int("source_authors", len(authors)),
		zap.Int("appended", added),
	)

	return m.promoteUnscraped(ctx)
}

// fetchAll pages through the source until an empty page or the page
// ceiling. A failed page ends pagination; the authors collected so far
// still reconcile.
func (m *Manager) fetchAll(ctx context.Context) ([]source.Author, error) {
	var all []source.Author
	for page := 1; page <= m.maxPages; page++ {
		batch, err := m.src.Authors(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch authors: %w", err)
			}
			m.logger.Warn("author pagination stopped early",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	return all, nil
}

// appendMissing adds every source author whose id is absent from the
// ledger. Ids compare as strings since the sheet stores text cells.
func (m *Manager) appendMissing(ctx context.Context, authors []source.Author) (int, error) {
	rows, err := m.ledger.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}

	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		known[row.ID] = struct{}{}
	}

	added := 0
	for _, a := range authors {
		id := strconv.Itoa(a.ID)
		if _, ok := known[id]; ok {
			continue
		}
		next, err := m.ledger.NextIndex(ctx)
		if err != nil {
			return added, fmt.Errorf("next ledger row: %w", err)
		}
		row := ledger.Row{
			Index:       next,
			ID:          id,
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			FullName:    a.FullName(),
			LinkFormula: ledger.LinkFormula(next),
		}
		if err := m.ledger.Append(ctx, row); err != nil {
			return added, fmt.Errorf("append author %s: %w", id, err)
		}
		known[id] = struct{}{}
		added++
		metrics.ObserveAuthor("appended")
	}
	return added, nil
}

// promoteUnscraped re-reads the ledger and pushes every unscraped row
// into the catalog, flipping the scraped flag first. A failed catalog
// write is logged and skipped; the flag stays set.
func (m *Manager) promoteUnscraped(ctx context.Context) error {
	rows, err := m.ledger.Rows(ctx)
	if err != nil {
		return fmt.Errorf("re-read ledger: %w", err)
	}

	for _, row := range rows {
		if row.Scraped {
			continue
		}
		if err := m.ledger.SetScraped(ctx, row.Index); err != nil {
			m.logger.Error("set scraped failed",
				zap.String("author_id", row.ID),
				zap.Int("row", row.Index),
				zap.Error(err),
			)
			continue
		}
		author := catalog.Author{
			AuthorID:   row.ID,
			AuthorName: row.FullName,
			AuthorLink: row.LinkFormula,
		}
		if err := m.cat.CreateAuthor(ctx, author); err != nil {
			m.logger.Error("create catalog author failed",
				zap.String("author_id", row.ID),
				zap.String("name", row.FullName),
				zap.Error(err),
			)
			continue
		}
		metrics.ObserveAuthor("promoted")
		m.logger.Info("author synced",
			zap.String("author_id", row.ID),
			zap.String("name", row.FullName),
		)
	}
	return nil
}
