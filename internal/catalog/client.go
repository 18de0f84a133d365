// Package catalog implements the HTTP client for the internal book
// catalog API. The catalog itself (persistence, admin UI) is an
// external collaborator; only its REST boundary lives here.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the internal catalog API.
type Client struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// New constructs a Client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiMessage(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// apiMessage extracts the catalog's error message field when present.
func apiMessage(data []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// CreateBook posts a new book and returns the catalog-assigned id.
// Anything but a 201 with a book_id is an error.
func (c *Client) CreateBook(ctx context.Context, book Book) (int, error) {
	var created struct {
		BookID int `json:"book_id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/books/", book, &created)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated || created.BookID == 0 {
		return 0, fmt.Errorf("create book %q: unexpected status %d", book.Title, status)
	}
	c.logger.Info("book created",
		zap.String("title", book.Title),
		zap.Int("book_id", created.BookID),
	)
	return created.BookID, nil
}

// UpdateBook patches the given fields on a book record.
func (c *Client) UpdateBook(ctx context.Context, bookID int, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/books/%d/", bookID), fields, nil)
	return err
}

// MarkPosted flips the is_posted flag. The update is idempotent.
func (c *Client) MarkPosted(ctx context.Context, bookID int) error {
	return c.UpdateBook(ctx, bookID, map[string]any{"is_posted": true})
}

// GetBook fetches a single book including its content.
func (c *Client) GetBook(ctx context.Context, bookID int) (Book, error) {
	var book Book
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%d/", bookID), nil, &book)
	return book, err
}

// ListBooks fetches all books. Content is stripped from list results
// to keep payloads small; use GetBook for the full record.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if _, err := c.do(ctx, http.MethodGet, "/books/", nil, &books); err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Content = ""
	}
	return books, nil
}

// UnpostedBooks returns books not yet pushed to the publisher.
func (c *Client) UnpostedBooks(ctx context.Context) ([]Book, error) {
	books, err := c.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	unposted := books[:0]
	for _, b := range books {
		if !b.IsPosted {
			unposted = append(unposted, b)
		}
	}
	return unposted, nil
}

// DeleteBook removes a book record.
func (c *Client) DeleteBook(ctx context.Context, bookID int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/books/%d/", bookID), nil, nil)
	return err
}

// CreateAuthor posts a new author record.
func (c *Client) CreateAuthor(ctx context.Context, author Author) error {
	_, err := c.do(ctx, http.MethodPost, "/authors/", author, nil)
	if err != nil {
		return err
	}
	c.logger.Info("author created", zap.String("author_name", author.AuthorName))
	return nil
}

// UpdateAuthor patches the given fields on an author record.
func (c *Client) UpdateAuthor(ctx context.Context, authorID string, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/authors/%s/", authorID), fields, nil)
	return err
}

// DeleteAuthor removes an author record.
func (c *Client) DeleteAuthor(ctx context.Context, authorID string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/authors/%s/", authorID), nil, nil)
	return err
}

// ListAuthors fetches all authors.
func (c *Client) ListAuthors(ctx context.Context) ([]Author, error) {
	var authors []Author
	_, err := c.do(ctx, http.MethodGet, "/authors/", nil, &authors)
	return authors, err
}

// ListUsers fetches all user records, tokens included.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	_, err := c.do(ctx, http.MethodGet, "/users/", nil, &users)
	return users, err
}

// UpdateUser patches the given fields on a user record.
func (c *Client) UpdateUser(ctx context.Context, userID int, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/", userID), fields, nil)
	return err
}

// DeleteUser removes a user record.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d/", userID), nil, nil)
	return err
}

// ListCategories fetches the catalog's category records.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	_, err := c.do(ctx, http.MethodGet, "/categories/", nil, &categories)
	return categories, err
}

// CreateCategory posts a new category record.
func (c *Client) CreateCategory(ctx context.Context, cat Category) error {
	_, err := c.do(ctx, http.MethodPost, "/categories/", cat, nil)
	return err
}
