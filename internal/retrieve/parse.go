package retrieve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// LogRef is one downloadable log file discovered on a listing page.
type LogRef struct {
	Filename string // e.g. Anadyr__20260107T031121_METEOR-M2_3_rec.log
	BaseURL  string // listing page the link was found on
}

// Log filenames embed the station name and the pass date:
// <station>__<YYYYMMDD>T<HHMMSS>_<satellite>_rec.log
var logLinkRe = regexp.MustCompile(`log_view/([^"\s<>]+__\d{8}[^"\s<>]+_rec\.log)`)

// FindLogs scans listing page HTML for log links matching the given UTC
// date and groups them by station. Links whose station prefix is not in
// the stations list are dropped. Duplicate links are collapsed.
func FindLogs(html string, date time.Time, stations []string, baseURL string) map[string][]LogRef {
	dateTag := date.UTC().Format("20060102")
	marker := fmt.Sprintf("__%s", dateTag)

	allowed := make(map[string]struct{}, len(stations))
	for _, s := range stations {
		allowed[s] = struct{}{}
	}

	seen := make(map[string]struct{})
	var files []string
	for _, m := range logLinkRe.FindAllStringSubmatch(html, -1) {
		name := m[1]
		if !strings.Contains(name, marker) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		files = append(files, name)
	}
	sort.Strings(files)

	byStation := make(map[string][]LogRef)
	for _, name := range files {
		station, _, ok := strings.Cut(name, marker)
		if !ok {
			continue
		}
		if _, ok := allowed[station]; !ok {
			continue
		}
		byStation[station] = append(byStation[station], LogRef{Filename: name, BaseURL: baseURL})
	}
	return byStation
}

// splitLines breaks downloaded log content into trimmed lines, dropping
// trailing carriage returns so Windows-encoded logs parse cleanly.
func splitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
