package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
	"startercode/pkg/utils"

	"golang.org/x/time/rate"
)

// PageFunc is called after each fetched page.
type PageFunc func(page, datasets int)

// Client pages through the CKAN current_package_list_with_resources action.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	retryPolicy  config.RetryPolicy
	headers      http.Header
	log          *logger.Logger
	onPage       PageFunc
	apiURL       string
	pageSize     int
	bufferSizeKb int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter replaces the page throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithPageFunc registers a progress callback.
func WithPageFunc(fn PageFunc) Option {
	return func(c *Client) { c.onPage = fn }
}

// NewClient creates a catalog client from the portal and fetch configuration.
func NewClient(cfg *config.Config, log *logger.Logger, opts ...Option) *Client {
	limit := rate.Inf
	if interval := cfg.Fetch.PageInterval(); interval > 0 {
		limit = rate.Every(interval)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Fetch.Retry.GetTimeout(),
		},
		limiter:      rate.NewLimiter(limit, 1),
		retryPolicy:  cfg.Fetch.Retry,
		headers:      utils.NewHTTPHelper().BuildHeaders(nil),
		log:          log,
		apiURL:       cfg.Portal.APIURL,
		pageSize:     cfg.Fetch.PageSize,
		bufferSizeKb: cfg.Fetch.BufferSizeKb,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewSource returns a FileSource when fetch.snapshot is set and a catalog
// Client otherwise. Options only apply to the Client.
func NewSource(cfg *config.Config, log *logger.Logger, opts ...Option) Source {
	if cfg.Fetch.Snapshot != "" {
		return NewFileSource(cfg.Fetch.Snapshot)
	}

	return NewClient(cfg, log, opts...)
}

// Fetch requests pages until the catalog returns an empty one.
func (c *Client) Fetch(ctx context.Context) ([]models.Dataset, error) {
	var all []models.Dataset

	for page, offset := 1, 0; ; page, offset = page+1, offset+c.pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		datasets, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("page %d (offset %d): %w", page, offset, err)
		}

		if len(datasets) == 0 {
			break
		}

		all = append(all, datasets...)

		c.log.Debug("fetched catalog page", "page", page, "offset", offset, "datasets", len(datasets))

		if c.onPage != nil {
			c.onPage(page, len(all))
		}
	}

	c.log.Info("catalog fetched", "datasets", len(all))

	return all, nil
}

func (c *Client) pageURL(offset int) (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}

	q := u.Query()
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]models.Dataset, error) {
	pageURL, err := c.pageURL(offset)
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 1; attempt <= c.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return nil, err
			}
		}

		body, status, err := c.get(ctx, pageURL)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, c.retryPolicy.MaxAttempts, err)
			c.log.Warn("catalog request failed", "url", pageURL, "attempt", attempt, "error", err)

			if ctx.Err() != nil {
				return nil, lastErr
			}

			continue
		}

		if status != http.StatusOK {
			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, status)

			if !isRetryableStatus(status) {
				return nil, lastErr
			}

			c.log.Warn("catalog returned retryable status", "url", pageURL, "attempt", attempt, "status", status)

			continue
		}

		return decodeDatasets(body)
	}

	return nil, lastErr
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	limit := int64(c.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus reports temporary failures worth another attempt.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
