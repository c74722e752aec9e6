package pass

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config carries the tunables of the analysis pipeline. Everything the core
// needs is passed in explicitly; nothing is read from ambient state, so
// invocations are deterministic, parallel and reprocessing-safe.
type Config struct {
	// MaxGap is the largest separation between consecutive samples that
	// still counts as the same physical overflight.
	MaxGap time.Duration

	// Thresholds is the per-band empty-pass SNR threshold table.
	Thresholds Thresholds

	// Commercial lists the satellites of the commercial fleet. When set,
	// reports carry a second stats section restricted to these satellites.
	Commercial []string
}

// Pipeline is the parse -> segment -> classify -> aggregate engine for one
// or more stations. It holds no mutable state and is safe for concurrent
// use; each station is processed independently.
type Pipeline struct {
	maxGap     time.Duration
	classifier *Classifier
	all        *Aggregator
	commercial *Aggregator // nil when no commercial fleet configured
}

// NewPipeline validates the configuration and builds a Pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.MaxGap <= 0 {
		return nil, fmt.Errorf("max gap must be positive, got %s", cfg.MaxGap)
	}
	classifier, err := NewClassifier(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	p := &Pipeline{
		maxGap:     cfg.MaxGap,
		classifier: classifier,
		all:        NewAggregator(nil),
	}
	if len(cfg.Commercial) > 0 {
		p.commercial = NewAggregator(cfg.Commercial)
	}
	return p, nil
}

// StationResult is one station's slice of the daily report. Err is set when
// the station's stream failed fatally (unordered input, band without a
// threshold); the other stations are unaffected.
type StationResult struct {
	Station string     `json:"station"`
	Day     StationDay `json:"day"`

	Satellites []SatelliteStat `json:"satellites"`
	Rollup     Rollup          `json:"rollup"`

	Commercial       []SatelliteStat `json:"commercial,omitempty"`
	CommercialRollup Rollup          `json:"commercialRollup"`

	Skipped map[SkipReason]int `json:"skipped,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// OK reports whether the station's pipeline completed.
func (r *StationResult) OK() bool { return r.Err == "" }

// Report is the immutable output handed to the plotting and notification
// collaborators: one StationDay per station plus derived statistics, with
// enough structure that downstream consumers only filter and format.
type Report struct {
	Date     time.Time       `json:"date"`
	Stations []StationResult `json:"stations"`

	Overall           Rollup `json:"overall"`
	CommercialOverall Rollup `json:"commercialOverall"`
}

// BuildStationDay runs the full pipeline for one station and date: parse
// the raw lines, partition by (satellite, band), segment, classify, and
// keep the passes that start on the requested date. Skips are returned for
// counting; a non-nil error means the station failed fatally.
func (p *Pipeline) BuildStationDay(station string, lines []string, date time.Time) (StationDay, []Skip, error) {
	day := StationDay{Station: station, Date: DateOf(date)}

	samples, skips := ParseLines(lines)

	type streamKey struct {
		satellite string
		band      Band
	}
	streams := make(map[streamKey][]Sample)
	var order []streamKey
	for _, s := range samples {
		key := streamKey{s.Satellite, s.Band}
		if _, seen := streams[key]; !seen {
			order = append(order, key)
		}
		streams[key] = append(streams[key], s)
	}

	window := Day(date)
	for _, key := range order {
		passes, err := Segment(station, streams[key], p.maxGap)
		if err != nil {
			return StationDay{}, skips, fmt.Errorf("segmenting %s/%s: %w", key.satellite, key.band, err)
		}
		for _, pa := range passes {
			classified, err := p.classifier.Classify(pa)
			if err != nil {
				return StationDay{}, skips, fmt.Errorf("classifying %s/%s: %w", key.satellite, key.band, err)
			}
			if window.Contains(classified.Start) {
				day.Passes = append(day.Passes, classified)
			}
		}
	}

	sort.Slice(day.Passes, func(i, j int) bool {
		return day.Passes[i].Start.Before(day.Passes[j].Start)
	})
	return day, skips, nil
}

// BuildReport processes every station's raw log lines for one date and
// assembles the report. Stations run in parallel with no coordination
// beyond collecting results; one station's failure is recorded in its
// StationResult and does not abort the others.
func (p *Pipeline) BuildReport(date time.Time, logs map[string][]string) *Report {
	stations := make([]string, 0, len(logs))
	for station := range logs {
		stations = append(stations, station)
	}
	sort.Strings(stations)

	results := make([]StationResult, len(stations))

	var wg sync.WaitGroup
	for i, station := range stations {
		wg.Add(1)
		go func(i int, station string) {
			defer wg.Done()
			results[i] = p.buildStation(station, logs[station], date)
		}(i, station)
	}
	wg.Wait()

	report := &Report{Date: DateOf(date), Stations: results}
	for _, r := range results {
		report.Overall.TotalPasses += r.Rollup.TotalPasses
		report.Overall.EmptyPasses += r.Rollup.EmptyPasses
		report.CommercialOverall.TotalPasses += r.CommercialRollup.TotalPasses
		report.CommercialOverall.EmptyPasses += r.CommercialRollup.EmptyPasses
	}
	report.Overall.EmptyRatio = ratio(report.Overall.EmptyPasses, report.Overall.TotalPasses)
	report.CommercialOverall.EmptyRatio = ratio(report.CommercialOverall.EmptyPasses, report.CommercialOverall.TotalPasses)
	return report
}

func (p *Pipeline) buildStation(station string, lines []string, date time.Time) StationResult {
	result := StationResult{Station: station}

	day, skips, err := p.BuildStationDay(station, lines, date)
	if len(skips) > 0 {
		result.Skipped = make(map[SkipReason]int)
		for _, s := range skips {
			result.Skipped[s.Reason]++
		}
	}
	if err != nil {
		result.Err = err.Error()
		return result
	}

	result.Day = day
	window := Day(date)
	result.Satellites, result.Rollup = p.all.Aggregate(day.Passes, window)
	if p.commercial != nil {
		result.Commercial, result.CommercialRollup = p.commercial.Aggregate(day.Passes, window)
	}
	return result
}

// AggregateWindow recomputes per-satellite stats and the rollup for an
// arbitrary window over already classified passes, for example a rolling
// 7-day trend over passes loaded back from storage. Commercial-only
// aggregation is selected with commercialOnly when a fleet is configured.
func (p *Pipeline) AggregateWindow(passes []Pass, window DateWindow, commercialOnly bool) ([]SatelliteStat, Rollup) {
	if commercialOnly && p.commercial != nil {
		return p.commercial.Aggregate(passes, window)
	}
	return p.all.Aggregate(passes, window)
}
