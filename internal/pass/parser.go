package pass

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayout is the timestamp format of station reception logs. Fractional
// seconds of any length are accepted after the seconds field. Timestamps
// carry no zone information and are defined to be UTC.
const timeLayout = "2006-01-02 15:04:05"

// SkipReason explains why a raw log line did not produce a Sample.
type SkipReason string

const (
	SkipComment      SkipReason = "comment"       // header or comment line ('#' prefix) or blank
	SkipShortLine    SkipReason = "short-line"    // fewer fields than the record format requires
	SkipBadTimestamp SkipReason = "bad-timestamp" // malformed date or time field
	SkipBadBand      SkipReason = "bad-band"      // band code outside {L, X}
	SkipBadSNR       SkipReason = "bad-snr"       // SNR field missing or not numeric
	SkipNonFinite    SkipReason = "non-finite"    // SNR parsed but is NaN or infinite
)

// Skip is a diagnostic record for one rejected log line. Skips are counted,
// never fatal: a station with a corrupted log still yields partial results.
type Skip struct {
	Line   string
	Reason SkipReason
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %q", s.Reason, s.Line)
}

// ParseLine parses one raw station log line into a Sample.
//
// The record format is whitespace separated:
//
//	2026-01-07 03:11:21.421  METEOR-M2_3  L  7.35
//
// date, time, satellite id, band code and SNR. Lines starting with '#' are
// log headers and are skipped. On rejection the returned *Skip is non-nil
// and carries the reason; parsing never panics on malformed input.
func ParseLine(line string) (Sample, *Skip) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Sample{}, &Skip{Line: line, Reason: SkipComment}
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 5 {
		return Sample{}, &Skip{Line: line, Reason: SkipShortLine}
	}

	timestamp, err := time.ParseInLocation(timeLayout, fields[0]+" "+fields[1], time.UTC)
	if err != nil {
		return Sample{}, &Skip{Line: line, Reason: SkipBadTimestamp}
	}

	band, err := ParseBand(fields[3])
	if err != nil {
		return Sample{}, &Skip{Line: line, Reason: SkipBadBand}
	}

	snr, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Sample{}, &Skip{Line: line, Reason: SkipBadSNR}
	}
	if math.IsNaN(snr) || math.IsInf(snr, 0) {
		return Sample{}, &Skip{Line: line, Reason: SkipNonFinite}
	}

	return Sample{
		Timestamp: timestamp,
		Satellite: fields[2],
		Band:      band,
		SNR:       snr,
	}, nil
}

// ParseLines parses a whole station log. Samples keep their input order;
// rejected lines are returned as skips alongside the good samples.
func ParseLines(lines []string) ([]Sample, []Skip) {
	var samples []Sample
	var skips []Skip
	for _, line := range lines {
		sample, skip := ParseLine(line)
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		samples = append(samples, sample)
	}
	return samples, skips
}
