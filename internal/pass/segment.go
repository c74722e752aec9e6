package pass

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnorderedInput is returned when a sample stream is not in
	// chronological order. Out-of-order input signals an upstream contract
	// violation, so it is rejected rather than silently re-sorted.
	ErrUnorderedInput = errors.New("samples are not in chronological order")

	// ErrMixedStream is returned when a stream contains more than one
	// satellite or band. Streams must be partitioned before segmentation.
	ErrMixedStream = errors.New("stream mixes satellites or bands")
)

// Segment groups a chronologically ordered sample stream for one
// (station, satellite, band) triple into discrete passes. A new pass starts
// whenever the gap to the previous sample exceeds maxGap; below that
// separation two bursts of signal are considered the same physical
// overflight. A single isolated sample still forms a one-sample pass.
//
// Segmentation is a pure function of (samples, maxGap): the same input
// always yields the same pass boundaries.
func Segment(station string, samples []Sample, maxGap time.Duration) ([]Pass, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	first := samples[0]
	for i := 1; i < len(samples); i++ {
		if samples[i].Satellite != first.Satellite || samples[i].Band != first.Band {
			return nil, fmt.Errorf("%w: %s/%s followed by %s/%s",
				ErrMixedStream, first.Satellite, first.Band, samples[i].Satellite, samples[i].Band)
		}
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: %s after %s",
				ErrUnorderedInput,
				samples[i].Timestamp.Format(time.RFC3339Nano),
				samples[i-1].Timestamp.Format(time.RFC3339Nano))
		}
	}

	var passes []Pass
	start := 0
	for i := 1; i <= len(samples); i++ {
		if i < len(samples) && samples[i].Timestamp.Sub(samples[i-1].Timestamp) <= maxGap {
			continue
		}
		chunk := samples[start:i:i]
		passes = append(passes, Pass{
			Station:   station,
			Satellite: first.Satellite,
			Band:      first.Band,
			Start:     chunk[0].Timestamp,
			End:       chunk[len(chunk)-1].Timestamp,
			Samples:   chunk,
		})
		start = i
	}
	return passes, nil
}
