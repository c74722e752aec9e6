package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lorett/groundlink/internal/pass"
)

// Store provides an interface for managing ground-link monitoring data.
// It handles analysis runs, classified pass records and per-station daily
// statistics. All write operations are atomic.
type Store interface {
	// CreateRun registers a new analysis run and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - reportDate: UTC calendar date the run processes
	//   - config: Optional pipeline configuration. Can be string, []byte,
	//     or a JSON-serializable object
	//
	// Returns:
	//   - runID: Unique identifier for the created run
	//   - error: If run creation fails or context is cancelled
	CreateRun(ctx context.Context, reportDate time.Time, config any) (runID int64, err error)

	// Run retrieves a specific analysis run by its ID.
	Run(ctx context.Context, id int64) (run *RunData, err error)

	// Runs returns all analysis runs ordered by start time ascending.
	Runs(ctx context.Context) (runs []RunData, err error)

	// StoreStationDay persists one station's classified passes for one
	// date in a single transaction. Any previously stored passes for the
	// same (station, date) are replaced wholesale, keeping reprocessing of
	// historical dates idempotent.
	StoreStationDay(ctx context.Context, runID int64, day pass.StationDay) error

	// StoreStationStats upserts the station's daily rollup. The row is
	// keyed by (station, day); reprocessing overwrites it.
	StoreStationStats(ctx context.Context, runID int64, station string, day time.Time, rollup pass.Rollup) error

	// Passes creates an iterator over stored pass records. Filtering by
	// station, satellite, band and date window is configured through
	// options (WithStation, WithSatellite, WithBand, WithDateWindow).
	//
	// The returned iterator must be closed after use to release database
	// resources.
	Passes(ctx context.Context, opts ...PassOption) (*PassIterator, error)

	// EmptyRatioByDay returns the per-day pass tallies inside the window,
	// for one station or, with an empty station, across all stations. Days
	// without passes are absent from the result.
	EmptyRatioByDay(ctx context.Context, window pass.DateWindow, station string) ([]DayAggregate, error)

	// Stations returns the distinct station names present in the store.
	Stations(ctx context.Context) ([]string, error)

	// Close releases all database connections and resources. It is safe to
	// call Close multiple times.
	Close() error
}
