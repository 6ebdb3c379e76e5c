// Package profileclient resolves tenant slugs against the public profile API.
package profileclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gosuda/folio/internal/domain"
)

// maxBodyBytes caps the profile payload read from the API.
const maxBodyBytes = 1 << 20

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	StatusCode int
	Slug       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("profileclient: %s: unexpected status %d", e.Slug, e.StatusCode)
}

// Client calls GET {baseURL}/{slug}/public-profile.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("profileclient.New: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("profileclient.New: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchProfile implements domain.ProfileFetcher. A 404 maps to
// domain.ErrNotFound; any other failure is returned wrapped.
func (c *Client) FetchProfile(ctx context.Context, slug string) (*domain.Profile, error) {
	slug = domain.NormalizeSlug(slug)
	if slug == "" {
		return nil, fmt.Errorf("profileclient.FetchProfile: %w", domain.ErrInvalidSlug)
	}

	endpoint := c.baseURL.JoinPath(slug, "public-profile")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("profileclient.FetchProfile: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profileclient.FetchProfile: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("profileclient.FetchProfile: %s: %w", slug, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Slug: slug}
	}

	var p domain.Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("profileclient.FetchProfile: %s: empty body", slug)
		}
		return nil, fmt.Errorf("profileclient.FetchProfile: decode: %w", err)
	}
	if p.Slug == "" {
		p.Slug = slug
	}

	return &p, nil
}
