// Package onedrive is a thin REST client for the storage provider's folder
// and account endpoints. It distinguishes not-found, forbidden and
// retry-exhausted failures so callers can map them to boundary errors.
package onedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"stratus/internal/domain"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Client calls the storage provider's REST API with a bearer token supplied
// per call. Retries are bounded and internal; callers never retry on top.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a provider client against the given API base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// GetFolder fetches folder metadata, including the ancestor path collection
// and the direct children.
func (c *Client) GetFolder(ctx context.Context, token, folderID string) (*RemoteFolder, error) {
	var folder RemoteFolder
	url := fmt.Sprintf("%s/folders/%s", c.baseURL, folderID)
	if err := c.getJSON(ctx, token, url, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetUserInfo fetches the identity of the account the token belongs to.
func (c *Client) GetUserInfo(ctx context.Context, token string) (*AccountInfo, error) {
	var info AccountInfo
	url := fmt.Sprintf("%s/users/me", c.baseURL)
	if err := c.getJSON(ctx, token, url, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// getJSON performs an authenticated GET and decodes the response. Rate-limit
// and server errors are retried with a fixed backoff; exhausting the retry
// budget yields a TransientError.
func (c *Client) getJSON(ctx context.Context, token, url string, dest any) error {
	var lastStatus int

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("provider request failed", "url", url, "attempt", attempt, "error", err)
			lastStatus = 0
			continue
		}

		retry, err := c.handleResponse(resp, dest)
		if !retry {
			return err
		}
		lastStatus = resp.StatusCode
		c.logger.Warn("provider request retryable", "url", url, "attempt", attempt, "status", lastStatus)
	}

	return &domain.TransientError{
		Message: fmt.Sprintf("provider request exhausted %d retries (last status %d)", c.maxRetries, lastStatus),
	}
}

// handleResponse decodes a single attempt. The bool result reports whether
// the attempt may be retried.
func (c *Client) handleResponse(resp *http.Response, dest any) (bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return false, fmt.Errorf("decode provider response: %w", err)
		}
		return false, nil
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, &domain.NotFoundError{Message: "folder not found"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return false, &domain.ForbiddenError{Message: "provider denied access"}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return true, nil
	default:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("provider request failed with status %d", resp.StatusCode)
	}
}
