// Package source implements the client for the external author source,
// a paged POST endpoint returning author batches.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Author is one record from the external source.
type Author struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins the first and last name.
func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Client pages through the external author source.
type Client struct {
	base     string
	userID   int
	device   int
	pageSize int
	client   *http.Client
	logger   *zap.Logger
}

// New constructs a Client. userID and device identify the calling
// account to the source API; pageSize is the per-page limit.
func New(baseURL string, userID, device, pageSize int, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		base:     strings.TrimSuffix(baseURL, "/"),
		userID:   userID,
		device:   device,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Authors fetches one page of authors. An empty slice signals the end
// of pagination.
func (c *Client) Authors(ctx context.Context, page int) ([]Author, error) {
	payload, err := json.Marshal(map[string]any{
		"userId": c.userID,
		"device": c.device,
		"page":   page,
		"limit":  c.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("encode authors request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/authors", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build authors request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch authors page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch authors page %d: status %d", page, resp.StatusCode)
	}

	var body struct {
		Authors []Author `json:"authors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode authors page %d: %w", page, err)
	}

	c.logger.Debug("fetched author page",
		zap.Int("page", page),
		zap.Int("count", len(body.Authors)),
	)
	return body.Authors, nil
}
