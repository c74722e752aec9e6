// Package retrieve fetches reception log files from EUS ground station
// portals. It scrapes the portal listing pages for log links matching a
// report date, then downloads the referenced files with bounded
// concurrency.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultConcurrency = 10

	logGetPath = "/eus/log_get/"
)

// ErrRetriesExhausted indicates the portal kept answering 503 for every
// attempt of a listing page request.
var ErrRetriesExhausted = errors.New("retrieve: retries exhausted")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithMaxRetries sets the number of attempts for listing page requests
// that fail with 503 Service Unavailable.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithConcurrency bounds the number of simultaneous log downloads.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBackoffBase overrides the base delay of the exponential backoff
// used between 503 retries. Intended for tests.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithDownloadObserver registers a callback invoked once per log
// download with its outcome ("success" or "error") and its size in
// bytes. Used to feed instrumentation counters.
func WithDownloadObserver(f func(outcome string, bytes int)) Option {
	return func(c *Client) { c.observe = f }
}

// Client talks to one or more EUS portal pages. A portal page lists the
// passes recorded by a group of stations, with per-pass links into the
// log archive.
type Client struct {
	hc          *http.Client
	logger      *slog.Logger
	pageURLs    []string
	maxRetries  int
	concurrency int
	backoffBase time.Duration
	observe     func(outcome string, bytes int)
}

// NewClient creates a portal client for the given listing page URLs.
func NewClient(logger *slog.Logger, pageURLs []string, opts ...Option) *Client {
	c := &Client{
		hc:          &http.Client{Timeout: defaultTimeout},
		logger:      logger,
		pageURLs:    pageURLs,
		maxRetries:  defaultMaxRetries,
		concurrency: defaultConcurrency,
		backoffBase: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLogs downloads all reception logs for the given UTC date across
// every configured portal page, keeping only logs that belong to one of
// the named stations. The result maps station name to the concatenated
// lines of all of its log files for that date.
//
// Stations fail independently: a download error for one station's file
// is recorded per station and does not abort the rest. A listing page
// that cannot be fetched at all makes FetchLogs return an error.
func (c *Client) FetchLogs(ctx context.Context, date time.Time, stations []string) (map[string][]string, error) {
	refs := make(map[string][]LogRef)
	for _, pageURL := range c.pageURLs {
		listURL := withDateParams(pageURL, date)

		html, err := c.fetchPage(ctx, listURL)
		if err != nil {
			return nil, fmt.Errorf("fetching listing %s: %w", pageURL, err)
		}

		found := FindLogs(html, date, stations, pageURL)
		for station, links := range found {
			refs[station] = append(refs[station], links...)
		}
	}

	total := 0
	for station, links := range refs {
		c.logger.Debug("logs listed", "station", station, "count", len(links))
		total += len(links)
	}
	c.logger.Info("portal listing complete",
		"date", date.Format(time.DateOnly),
		"stations", len(refs),
		"logs", total)

	return c.downloadAll(ctx, refs)
}

// fetchPage retrieves one listing page, retrying with exponential
// backoff when the portal answers 503. Other HTTP errors fail
// immediately.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, status, err := c.get(ctx, pageURL)
		if err != nil {
			return "", err
		}
		if status == http.StatusOK {
			return body, nil
		}
		if status != http.StatusServiceUnavailable {
			return "", fmt.Errorf("portal returned %d for %s", status, pageURL)
		}

		lastErr = fmt.Errorf("portal returned 503 for %s", pageURL)
		if attempt == c.maxRetries {
			break
		}

		delay := c.backoffBase * (1 << attempt)
		c.logger.Warn("portal unavailable, retrying",
			"url", pageURL,
			"attempt", attempt,
			"max", c.maxRetries,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRetriesExhausted, lastErr)
}

func (c *Client) get(ctx context.Context, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("building request: %w", err)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading response body: %w", err)
	}
	return string(body), res.StatusCode, nil
}

// withDateParams appends the t0/t1 query window covering a single day.
func withDateParams(pageURL string, date time.Time) string {
	sep := "?"
	if strings.Contains(pageURL, "?") {
		sep = "&"
	}
	t0 := date.UTC().Format(time.DateOnly)
	t1 := date.UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	return pageURL + sep + "t0=" + t0 + "&t1=" + t1
}

// logGetURL resolves the archive download URL for a log filename
// relative to the listing page it was found on.
func logGetURL(baseURL, filename string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = logGetPath + filename
	u.RawQuery = ""
	return u.String(), nil
}

func sizeLabel(n int) string {
	return humanize.Bytes(uint64(n))
}
