package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

// NotificationsPath is the aggregated feed endpoint.
const NotificationsPath = "/api/notifications"

const maxBodyBytes = 4 << 20

// Client fetches the aggregated notice feed over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.NotificationSource = (*Client)(nil)

// NewClient targets baseURL; a nil client gets a 15 second timeout.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    client,
		logger:  logger,
	}
}

// Fetch performs a single GET. Query parameters are only sent for a scoped
// selection. Every failure is returned as *domain.FetchFailure.
func (c *Client) Fetch(ctx context.Context, sel domain.Selection) (domain.Payload, error) {
	endpoint, err := buildURL(c.baseURL, sel)
	if err != nil {
		return domain.Payload{}, &domain.FetchFailure{URL: c.baseURL + NotificationsPath, Err: err}
	}

	c.debug("request notifications", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Payload{}, &domain.FetchFailure{URL: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NoticeBoard/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Payload{}, &domain.FetchFailure{URL: endpoint, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Payload{}, &domain.FetchFailure{
			URL:    endpoint,
			Status: resp.StatusCode,
			Err:    errors.New("failed to fetch notifications"),
		}
	}

	var payload domain.Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return domain.Payload{}, &domain.FetchFailure{URL: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.debug("notifications received",
		"guidelines", len(payload.Guidelines),
		"common", len(payload.Common),
		"departmental", len(payload.Departmental),
		"archive", len(payload.Archive))
	return payload, nil
}

func buildURL(base string, sel domain.Selection) (string, error) {
	parsed, err := url.Parse(base + NotificationsPath)
	if err != nil {
		return "", fmt.Errorf("invalid api url %s: %w", base, err)
	}
	if sel.Scoped() {
		query := parsed.Query()
		query.Set("department", sel.Department)
		query.Set("year", sel.Year)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
