package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

// SqliteStore implements Store on a single sqlite database file. Write and
// read paths use separate lazily opened connections; the write connection
// initializes the schema on first use.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store for the given database path. Connections
// are opened on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		// The write connection creates the database file and schema,
		// which a read-only connection cannot do.
		if _, err := s.getWriteDB(); err != nil {
			s.readDBErr = err
			return
		}

		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateRun(ctx context.Context, reportDate time.Time, config any) (runID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData.Valid = true
			configData.String = v

		case []byte:
			configData.Valid = true
			configData.String = string(v)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, pass.DateOf(reportDate).Format(time.DateOnly), configData)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	runID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting run ID: %w", err)
	}
	return
}

func (s *SqliteStore) Run(ctx context.Context, id int64) (run *RunData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var r RunData
	if r, err = scanRun(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning run: %w", err)
		return
	}
	return &r, nil
}

func (s *SqliteStore) Runs(ctx context.Context) (runs []RunData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r RunData
		if r, err = scanRun(rows); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		runs = append(runs, r)
	}
	err = rows.Err()
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunData, error) {
	var r RunData
	var reportDate time.Time
	var config sql.NullString
	if err := row.Scan(&r.ID, &r.StartedAt, &reportDate, &config); err != nil {
		return RunData{}, err
	}

	r.ReportDate = pass.DateOf(reportDate)
	if config.Valid {
		r.Config = &config.String
	}
	return r, nil
}

func (s *SqliteStore) StoreStationDay(ctx context.Context, runID int64, day pass.StationDay) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	date := pass.DateOf(day.Date).Format(time.DateOnly)
	if _, err = tx.ExecContext(ctx, deleteStationDaySQL, day.Station, date); err != nil {
		return fmt.Errorf("replacing station day: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPassSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, p := range day.Passes {
		_, err = stmt.ExecContext(ctx,
			runID,
			p.Station,
			p.Satellite,
			string(p.Band),
			pass.DateOf(p.Start).Format(time.DateOnly),
			p.Start.UTC(),
			p.End.UTC(),
			len(p.Samples),
			p.PeakSNR,
			p.MeanSNR,
			p.Empty,
		)
		if err != nil {
			return fmt.Errorf("inserting pass: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SqliteStore) StoreStationStats(ctx context.Context, runID int64, station string, day time.Time, rollup pass.Rollup) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, upsertStationStatsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	_, err = stmt.ExecContext(ctx,
		runID,
		station,
		pass.DateOf(day).Format(time.DateOnly),
		rollup.TotalPasses,
		rollup.EmptyPasses,
		rollup.EmptyRatio,
	)
	if err != nil {
		return fmt.Errorf("upserting station stats: %w", err)
	}
	return nil
}

func (s *SqliteStore) Passes(ctx context.Context, opts ...PassOption) (*PassIterator, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	iter := &PassIterator{db: db}
	for _, opt := range opts {
		opt(iter)
	}

	if err := iter.init(ctx); err != nil {
		return nil, err
	}
	return iter, nil
}

func (s *SqliteStore) EmptyRatioByDay(ctx context.Context, window pass.DateWindow, station string) (days []DayAggregate, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectEmptyRatioByDaySQL,
		window.Start.Format(time.DateOnly),
		window.End.Format(time.DateOnly),
		station, station,
	)
	if err != nil {
		err = fmt.Errorf("querying daily ratios: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d DayAggregate
		var day time.Time
		if err = rows.Scan(&day, &d.TotalPasses, &d.EmptyPasses); err != nil {
			err = fmt.Errorf("scanning daily ratio: %w", err)
			return
		}
		d.Day = pass.DateOf(day)
		days = append(days, d)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Stations(ctx context.Context) (stations []string, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectStationsSQL)
	if err != nil {
		err = fmt.Errorf("querying stations: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var station string
		if err = rows.Scan(&station); err != nil {
			err = fmt.Errorf("scanning station: %w", err)
			return
		}
		stations = append(stations, station)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}
		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if writeErr != nil || readErr != nil {
			s.closeErr = errors.Join(writeErr, readErr)
		}
	})

	return s.closeErr
}
