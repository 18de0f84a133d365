package ledger

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Column layout of the ledger worksheet. The scraped flag lives in
// column F; the link formula references column D of its own row.
const (
	colID = iota
	colFirstName
	colLastName
	colFullName
	colLink
	colScraped
	columnCount
)

const scrapedColumn = "F"

// Sheets is the Google Sheets implementation of Ledger.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheets connects to the spreadsheet using a service-account
// credentials file.
func NewSheets(ctx context.Context, spreadsheetID, worksheet, credentialsFile string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

// Rows reads the whole worksheet below the header.
func (s *Sheets) Rows(ctx context.Context) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.worksheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if len(resp.Values) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		rows = append(rows, Row{
			Index:       i + 2,
			ID:          cellString(raw, colID),
			FirstName:   cellString(raw, colFirstName),
			LastName:    cellString(raw, colLastName),
			FullName:    cellString(raw, colFullName),
			LinkFormula: cellString(raw, colLink),
			Scraped:     parseScraped(cell(raw, colScraped)),
		})
	}
	return rows, nil
}

// Append adds row at the bottom of the worksheet. USER_ENTERED keeps
// the link formula a live formula instead of literal text.
func (s *Sheets) Append(ctx context.Context, row Row) error {
	values := &sheets.ValueRange{
		Values: [][]any{{
			row.ID,
			row.FirstName,
			row.LastName,
			row.FullName,
			row.LinkFormula,
			row.Scraped,
		}},
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.worksheet, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append ledger row %s: %w", row.ID, err)
	}
	return nil
}

// SetScraped updates the scraped cell of rowIndex to TRUE.
func (s *Sheets) SetScraped(ctx context.Context, rowIndex int) error {
	cellRange := fmt.Sprintf("%s!%s%d", s.worksheet, scrapedColumn, rowIndex)
	values := &sheets.ValueRange{Values: [][]any{{true}}}
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, cellRange, values).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update scraped flag at row %d: %w", rowIndex, err)
	}
	return nil
}

// NextIndex computes where the next appended row will land.
func (s *Sheets) NextIndex(ctx context.Context) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.worksheet).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read ledger size: %w", err)
	}
	return len(resp.Values) + 1, nil
}

func cell(raw []any, idx int) any {
	if idx >= len(raw) {
		return nil
	}
	return raw[idx]
}

// cellString renders a cell as text. Unformatted numeric cells arrive
// as float64 and must not pick up exponent notation, ids compare as
// strings downstream.
func cellString(raw []any, idx int) string {
	switch v := cell(raw, idx).(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
