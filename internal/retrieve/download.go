package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// The archive answers missing logs with a short plain-text error page
// instead of an HTTP error status.
const minValidLogSize = 100

type downloadResult struct {
	station string
	lines   []string
	size    int
	err     error
}

// downloadAll fetches every referenced log with at most c.concurrency
// requests in flight. Failed downloads are logged and skipped so one
// bad file does not lose the rest of a station's day.
func (c *Client) downloadAll(ctx context.Context, refs map[string][]LogRef) (map[string][]string, error) {
	type job struct {
		station string
		ref     LogRef
	}

	var jobs []job
	for station, links := range refs {
		for _, ref := range links {
			jobs = append(jobs, job{station: station, ref: ref})
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ref.Filename < jobs[j].ref.Filename })

	results := make([]downloadResult, len(jobs))
	sem := make(chan struct{}, c.concurrency)

	var wg sync.WaitGroup
	for i, jb := range jobs {
		wg.Add(1)
		go func(i int, jb job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = downloadResult{station: jb.station, err: ctx.Err()}
				return
			}

			lines, size, err := c.downloadLog(ctx, jb.ref)
			results[i] = downloadResult{station: jb.station, lines: lines, size: size, err: err}
		}(i, jb)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logs := make(map[string][]string, len(refs))
	for station := range refs {
		logs[station] = nil
	}

	var totalBytes, failed int
	for i, res := range results {
		if res.err != nil {
			failed++
			c.logger.Warn("log download failed",
				"station", res.station,
				"file", jobs[i].ref.Filename,
				"error", res.err)
			if c.observe != nil {
				c.observe("error", 0)
			}
			continue
		}
		logs[res.station] = append(logs[res.station], res.lines...)
		totalBytes += res.size
		if c.observe != nil {
			c.observe("success", res.size)
		}
	}

	c.logger.Info("log downloads complete",
		"files", len(jobs)-failed,
		"failed", failed,
		"size", sizeLabel(totalBytes))

	return logs, nil
}

// downloadLog fetches a single log file and validates its content.
func (c *Client) downloadLog(ctx context.Context, ref LogRef) ([]string, int, error) {
	getURL, err := logGetURL(ref.BaseURL, ref.Filename)
	if err != nil {
		return nil, 0, err
	}

	body, status, err := c.get(ctx, getURL)
	if err != nil {
		return nil, 0, err
	}
	if status != http.StatusOK {
		return nil, 0, fmt.Errorf("archive returned %d for %s", status, ref.Filename)
	}
	if err := validateLogContent(body); err != nil {
		return nil, 0, err
	}
	return splitLines(body), len(body), nil
}

// validateLogContent rejects archive error pages served with status 200.
func validateLogContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "ERROR: No log") && strings.Contains(trimmed, "in the database") {
		first, _, _ := strings.Cut(trimmed, "\n")
		return fmt.Errorf("archive error: %s", strings.TrimSpace(first))
	}
	if len(trimmed) < minValidLogSize && strings.Contains(strings.ToUpper(trimmed), "ERROR") {
		return fmt.Errorf("archive error: %s", trimmed)
	}
	return nil
}
