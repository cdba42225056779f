package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"marquee/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Marquee/1.0"

	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// Client talks to one Plex Media Server. It only consumes the endpoints
// the catalog needs: record by id, children by container key, sections,
// and the aggregated hub/on-deck/recent feeds.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Plex API client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// BaseURL returns the server URL records were fetched from
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an authenticated GET with bounded retry on
// transport failures. Authentication failures are not retried.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("X-Plex-Token", c.token)
			req.Header.Set("X-Plex-Client-Identifier", c.clientID)
			req.Header.Set("X-Plex-Product", "Marquee")
			req.Header.Set("User-Agent", userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Warn("plex request failed", "url", reqURL, "error", err)
				return domain.ErrUpstreamUnavailable
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				return retry.Unrecoverable(domain.ErrNotAuthenticated)
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(domain.ErrItemNotFound)
			case resp.StatusCode != http.StatusOK:
				c.logger.Warn("plex request error", "url", reqURL, "status", resp.StatusCode)
				return domain.ErrUpstreamUnavailable
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return domain.ErrUpstreamUnavailable
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// parseContainer parses a JSON response into its MediaContainer. A body
// that does not decode is treated as an unusable upstream shape.
func (c *Client) parseContainer(body []byte) (*MediaContainer, error) {
	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("plex response parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, "malformed response")
	}
	return &resp.MediaContainer, nil
}

// GetRecord returns the metadata node for one source id
func (c *Client) GetRecord(ctx context.Context, id string) (*Metadata, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/library/metadata/%s", id), nil)
	if err != nil {
		return nil, err
	}
	container, err := c.parseContainer(body)
	if err != nil {
		return nil, err
	}
	if len(container.Metadata) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return &container.Metadata[0], nil
}

// GetChildren returns the child nodes of a container key. The key is a
// server path ("/library/sections/2/all", a playlist items key, ...).
func (c *Client) GetChildren(ctx context.Context, key string) ([]Metadata, error) {
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	body, err := c.doRequest(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	container, err := c.parseContainer(body)
	if err != nil {
		return nil, err
	}
	return container.Metadata, nil
}

// GetSections returns all library sections
func (c *Client) GetSections(ctx context.Context) ([]Directory, error) {
	body, err := c.doRequest(ctx, "/library/sections", nil)
	if err != nil {
		return nil, err
	}
	container, err := c.parseContainer(body)
	if err != nil {
		return nil, err
	}
	return container.Directory, nil
}

// GetHubs returns the aggregated hub feed with heterogeneous top-level
// entries tagged by type
func (c *Client) GetHubs(ctx context.Context) ([]Hub, error) {
	body, err := c.doRequest(ctx, "/hubs", nil)
	if err != nil {
		return nil, err
	}
	container, err := c.parseContainer(body)
	if err != nil {
		return nil, err
	}
	return container.Hub, nil
}

// GetOnDeck returns the server-side on-deck feed of one section
func (c *Client) GetOnDeck(ctx context.Context, sectionID string) ([]Metadata, error) {
	return c.GetChildren(ctx, fmt.Sprintf("/library/sections/%s/onDeck", sectionID))
}

// GetRecentlyAdded returns the recently added feed of one section
func (c *Client) GetRecentlyAdded(ctx context.Context, sectionID string) ([]Metadata, error) {
	return c.GetChildren(ctx, fmt.Sprintf("/library/sections/%s/recentlyAdded", sectionID))
}

// GetPlaylists returns all playlists
func (c *Client) GetPlaylists(ctx context.Context) ([]Metadata, error) {
	return c.GetChildren(ctx, "/playlists")
}

// GetWatchLater returns the watch-later queue
func (c *Client) GetWatchLater(ctx context.Context) ([]Metadata, error) {
	return c.GetChildren(ctx, "/playlists/queue/all")
}

// Search performs a server-side search across all libraries
func (c *Client) Search(ctx context.Context, query string) ([]Metadata, error) {
	params := url.Values{}
	params.Set("query", query)
	body, err := c.doRequest(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	container, err := c.parseContainer(body)
	if err != nil {
		return nil, err
	}
	return container.Metadata, nil
}

// Ready reports whether the server currently accepts authenticated
// requests. A single probe, no retry; callers poll.
func (c *Client) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/identity", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
