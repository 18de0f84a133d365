// Package ledger abstracts the spreadsheet-backed author ledger. Only
// the read-all / append / update-cell contract matters here; the
// spreadsheet product itself is an external collaborator.
package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Row is one author entry in the ledger. Index is the 1-based sheet
// row number (the header occupies row 1).
type Row struct {
	Index       int
	ID          string
	FirstName   string
	LastName    string
	FullName    string
	LinkFormula string
	Scraped     bool
}

// Ledger is the append/read/update-cell contract the sync manager
// needs from the spreadsheet.
type Ledger interface {
	// Rows returns every author row in sheet order.
	Rows(ctx context.Context) ([]Row, error)
	// Append adds a new author row at the bottom of the sheet.
	Append(ctx context.Context, row Row) error
	// SetScraped flips the scraped cell of the given sheet row to true.
	SetScraped(ctx context.Context, rowIndex int) error
	// NextIndex returns the sheet row an appended row would land on.
	NextIndex(ctx context.Context) (int, error)
}

// LinkFormula builds the cross-reference formula for the author-link
// column at the given sheet row.
func LinkFormula(rowIndex int) string {
	return fmt.Sprintf(`=IFERROR(VLOOKUP(D%d,Authors,2,0), "")`, rowIndex)
}

// parseScraped accepts a boolean or the literal text "false"/"true" in
// any case; anything unrecognized counts as unscraped.
func parseScraped(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}
