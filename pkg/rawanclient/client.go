// Package rawanclient is the Go client SDK for the plat-rawan hazard
// location API (/lokasi-rawan).
package rawanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// CollectionPath is the REST collection for hazard locations.
const CollectionPath = "/lokasi-rawan"

// Marker is a hazard location as returned by the API.
type Marker struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"namaLokasi" yaml:"name"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	Description string  `json:"deskripsi,omitempty" yaml:"description,omitempty"`
}

// MarkerInput is the request body for create and update.
type MarkerInput struct {
	Name        string  `json:"namaLokasi"`
	Description string  `json:"deskripsi"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// SessionProvider supplies the bearer credential for each request.
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a SessionProvider that always returns the same token.
type StaticToken string

// Token implements SessionProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// APIError is a non-2xx API response.
type APIError struct {
	Status  int
	Message string // "message" field of the response body, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lokasi-rawan: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("lokasi-rawan: %d %s", e.Status, http.StatusText(e.Status))
}

// GetStatus returns the HTTP status code.
func (e *APIError) GetStatus() int {
	return e.Status
}

// StatusOf returns the HTTP status carried by err, or 0 for transport and
// other non-API errors.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to a plat-rawan server.
type Client struct {
	baseURL string
	session SessionProvider
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession sets the bearer token source.
func WithSession(s SessionProvider) Option {
	return func(c *Client) { c.session = s }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every hazard location.
func (c *Client) List(ctx context.Context) ([]Marker, error) {
	var markers []Marker
	if err := c.do(ctx, http.MethodGet, CollectionPath, nil, &markers); err != nil {
		return nil, err
	}
	if markers == nil {
		markers = []Marker{}
	}
	return markers, nil
}

// Get fetches a single hazard location.
func (c *Client) Get(ctx context.Context, id int64) (Marker, error) {
	var m Marker
	err := c.do(ctx, http.MethodGet, itemPath(id), nil, &m)
	return m, err
}

// Create adds a hazard location.
func (c *Client) Create(ctx context.Context, in MarkerInput) (Marker, error) {
	var m Marker
	err := c.do(ctx, http.MethodPost, CollectionPath, in, &m)
	return m, err
}

// Update replaces the hazard location with the given ID.
func (c *Client) Update(ctx context.Context, id int64, in MarkerInput) (Marker, error) {
	var m Marker
	err := c.do(ctx, http.MethodPut, itemPath(id), in, &m)
	return m, err
}

// Delete removes the hazard location with the given ID.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return CollectionPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		token, err := c.session.Token(ctx)
		if err != nil {
			return fmt.Errorf("reading session: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
