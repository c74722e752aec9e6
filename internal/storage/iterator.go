package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

// PassOption configures a PassIterator with a filtering criterion.
type PassOption func(*PassIterator)

// WithStation restricts iteration to one station.
func WithStation(station string) PassOption {
	return func(i *PassIterator) {
		i.station = &station
	}
}

// WithSatellite restricts iteration to one satellite.
func WithSatellite(satellite string) PassOption {
	return func(i *PassIterator) {
		i.satellite = &satellite
	}
}

// WithBand restricts iteration to one frequency band.
func WithBand(band pass.Band) PassOption {
	return func(i *PassIterator) {
		i.band = &band
	}
}

// WithDateWindow restricts iteration to passes whose calendar date falls
// inside the window.
func WithDateWindow(window pass.DateWindow) PassOption {
	return func(i *PassIterator) {
		i.window = &window
	}
}

// PassIterator streams stored pass records ordered by start time. Each
// iterator instance must be used from a single goroutine and closed after
// use.
type PassIterator struct {
	db *sql.DB

	station   *string
	satellite *string
	band      *pass.Band
	window    *pass.DateWindow

	rows    *sql.Rows
	current StoredPass
	err     error
}

const selectPassesSQL = `
SELECT
    id,
    run_id,
    station,
    satellite,
    band,
    pass_date,
    start_time,
    end_time,
    sample_count,
    peak_snr,
    mean_snr,
    is_empty
FROM passes`

func (i *PassIterator) init(ctx context.Context) error {
	var where []string
	var args []any

	if i.station != nil {
		where = append(where, "station = ?")
		args = append(args, *i.station)
	}
	if i.satellite != nil {
		where = append(where, "satellite = ?")
		args = append(args, *i.satellite)
	}
	if i.band != nil {
		where = append(where, "band = ?")
		args = append(args, string(*i.band))
	}
	if i.window != nil {
		where = append(where, "pass_date BETWEEN ? AND ?")
		args = append(args, i.window.Start.Format(time.DateOnly), i.window.End.Format(time.DateOnly))
	}

	query := selectPassesSQL
	if len(where) > 0 {
		query += "\nWHERE\n    " + strings.Join(where, "\n    AND ")
	}
	query += "\nORDER BY start_time"

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying passes: %w", err)
	}

	i.rows = rows
	return nil
}

// Next advances the iterator. It returns false at the end of the result set
// or on error; check Error to distinguish the two.
func (i *PassIterator) Next() bool {
	if i.err != nil || !i.rows.Next() {
		return false
	}

	var p StoredPass
	var band string
	var date time.Time
	if err := i.rows.Scan(
		&p.ID,
		&p.RunID,
		&p.Station,
		&p.Satellite,
		&band,
		&date,
		&p.Start,
		&p.End,
		&p.SampleCount,
		&p.PeakSNR,
		&p.MeanSNR,
		&p.Empty,
	); err != nil {
		i.err = fmt.Errorf("scanning pass: %w", err)
		return false
	}

	parsedBand, err := pass.ParseBand(band)
	if err != nil {
		i.err = fmt.Errorf("stored pass %d: %w", p.ID, err)
		return false
	}
	p.Band = parsedBand

	p.Date = pass.DateOf(date)
	p.Start = p.Start.UTC()
	p.End = p.End.UTC()

	i.current = p
	return true
}

// Current returns the pass the iterator is positioned on. Calling it after
// Next returned false is undefined.
func (i *PassIterator) Current() StoredPass {
	return i.current
}

// Error returns the first error hit during iteration, if any.
func (i *PassIterator) Error() error {
	if i.err != nil {
		return i.err
	}
	return i.rows.Err()
}

// Close releases the database resources held by the iterator.
func (i *PassIterator) Close() error {
	return i.rows.Close()
}
