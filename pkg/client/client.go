// Package client is a typed HTTP client for the reservations service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diagnosis/travel-reservations/internal/domain"
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	var out []domain.Flight
	err := c.do(ctx, http.MethodGet, "flights", &out)
	return out, err
}

func (c *Client) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	err := c.do(ctx, http.MethodGet, "hotels", &out)
	return out, err
}

func (c *Client) ReserveFlight(ctx context.Context) (domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, http.MethodPost, "flights", &out)
	return out, err
}

func (c *Client) ReserveHotel(ctx context.Context) (domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, http.MethodPost, "hotels", &out)
	return out, err
}

func (c *Client) CancelFlight(ctx context.Context, id string) (domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, http.MethodDelete, "flights/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CancelHotel(ctx context.Context, id string) (domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, http.MethodDelete, "hotels/"+url.PathEscape(id), &out)
	return out, err
}

// Raw performs the request and returns the undecoded body.
func (c *Client) Raw(ctx context.Context, method, path string) ([]byte, error) {
	var out json.RawMessage
	if err := c.do(ctx, method, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		if base.RawPath != "" {
			base.RawPath += "/"
		}
	}
	target := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
