// Package publish pushes catalog books to the external publishing
// platform using rotated authentication tokens.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/catalog"
	"github.com/samircd4/bookspointer/internal/category"
	"github.com/samircd4/bookspointer/internal/metrics"
)

// Catalog is the slice of the internal catalog API the posting
// pipeline needs.
type Catalog interface {
	UserLister
	UnpostedBooks(ctx context.Context) ([]catalog.Book, error)
	GetBook(ctx context.Context, bookID int) (catalog.Book, error)
	MarkPosted(ctx context.Context, bookID int) error
}

// Config locates the publisher endpoint.
type Config struct {
	CreateBookURL string
	Timeout       time.Duration
}

// Publisher posts books to the external platform and reconciles the
// internal posted flag.
type Publisher struct {
	cfg     Config
	client  *http.Client
	catalog Catalog
	rng     *rand.Rand
	logger  *zap.Logger
}

// New constructs a Publisher. rng drives token rotation and may be
// seeded for deterministic tests.
func New(cfg Config, cat Catalog, rng *rand.Rand, logger *zap.Logger) *Publisher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Publisher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		catalog: cat,
		rng:     rng,
		logger:  logger,
	}
}

// envelope is the publisher's expected JSON payload, sent as the
// multipart "data" field.
type envelope struct {
	Title      string   `json:"title"`
	Category   idRef    `json:"category"`
	Author     idRef    `json:"author"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	SeriesName string   `json:"seriesName"`
}

type idRef struct {
	ID int `json:"id"`
}

// Post sends one book to the publisher with the given token and
// returns a human-readable outcome message.
//
// Posted means attempted: the internal is_posted flag is set on every
// completed HTTP exchange, whether or not the response parsed as a
// success. Only a transport-level failure leaves the flag unset, so a
// later run retries the book (possibly duplicating it at the
// publisher; the publisher side is not idempotent).
func (p *Publisher) Post(ctx context.Context, book catalog.Book, token string) (string, error) {
	seriesName := ""
	if book.Category == category.IncompleteLabel {
		seriesName = category.IncompleteLabel
	}

	payload, err := json.Marshal(envelope{
		Title:      book.Title,
		Category:   idRef{ID: book.CategoryID},
		Author:     idRef{ID: book.AuthorID},
		Content:    book.Content,
		Tags:       []string{},
		SeriesName: seriesName,
	})
	if err != nil {
		return "", fmt.Errorf("encode book %q: %w", book.Title, err)
	}

	body, contentType, err := multipartData(payload)
	if err != nil {
		return "", fmt.Errorf("build multipart for %q: %w", book.Title, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.CreateBookURL, body)
	if err != nil {
		return "", fmt.Errorf("build publish request for %q: %w", book.Title, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "*/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post book %q: %w", book.Title, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read publish response for %q: %w", book.Title, err)
	}

	message := p.outcomeMessage(book, data)

	if err := p.catalog.MarkPosted(ctx, book.BookID); err != nil {
		p.logger.Error("mark posted failed",
			zap.String("title", book.Title),
			zap.Int("book_id", book.BookID),
			zap.Error(err),
		)
	}
	return message, nil
}

// outcomeMessage interprets the publisher response: the assigned id
// when present, the platform's own message otherwise, or a locally
// composed failure line for unparseable bodies.
func (p *Publisher) outcomeMessage(book catalog.Book, data []byte) string {
	var parsed struct {
		LastBook struct {
			ID int `json:"id"`
		} `json:"last_book"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.LastBook.ID != 0 {
			return fmt.Sprintf("Book created with ID: %d", parsed.LastBook.ID)
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return fmt.Sprintf("Failed to post book %s: unexpected publisher response", book.Title)
}

func multipartData(payload []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="data"`)
	hdr.Set("Content-Type", "application/json")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Run posts every unposted catalog book, rotating through the shuffled
// token pool. List responses strip content, so each book is re-fetched
// in full before posting. Failures are logged and the batch continues.
func (p *Publisher) Run(ctx context.Context) error {
	tokens, err := TokenPool(ctx, p.catalog, p.rng)
	if err != nil {
		return fmt.Errorf("load token pool: %w", err)
	}
	if len(tokens) == 0 {
		return errors.New("no verified tokens available")
	}

	books, err := p.catalog.UnpostedBooks(ctx)
	if err != nil {
		return fmt.Errorf("list unposted books: %w", err)
	}
	if len(books) == 0 {
		p.logger.Info("all books are up to date")
		return nil
	}

	for i, book := range books {
		full, err := p.catalog.GetBook(ctx, book.BookID)
		if err != nil {
			p.logger.Error("fetch book content failed",
				zap.Int("book_id", book.BookID),
				zap.String("title", book.Title),
				zap.Error(err),
			)
			metrics.ObservePost("fetch_failed")
			continue
		}

		message, err := p.Post(ctx, full, tokens[i%len(tokens)])
		if err != nil {
			p.logger.Error("post book failed",
				zap.Int("book_id", book.BookID),
				zap.String("title", book.Title),
				zap.Error(err),
			)
			metrics.ObservePost("transport_error")
			continue
		}
		metrics.ObservePost("attempted")
		p.logger.Info("publisher response",
			zap.Int("book_id", book.BookID),
			zap.String("title", book.Title),
			zap.String("message", message),
		)
	}
	return nil
}
