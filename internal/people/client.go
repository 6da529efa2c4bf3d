// Package people fetches the staff directory from the remote people API.
package people

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/models"
)

// maxBody caps the decoded upstream response.
const maxBody = 8 << 20

// Client reads the people list from a JSON endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client for url. An empty url yields a client whose List
// always reports apperr.ErrUnavailable.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an upstream URL is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// List fetches every person from the upstream endpoint.
func (c *Client) List(ctx context.Context) ([]models.Person, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("people: no upstream configured: %w", apperr.ErrUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("people: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("people: %w: %w", apperr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, fmt.Errorf("people: upstream status %d: %w", resp.StatusCode, apperr.ErrUnavailable)
	}

	var out []models.Person
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("people: decode: %w", err)
	}
	if out == nil {
		out = []models.Person{}
	}
	return out, nil
}
