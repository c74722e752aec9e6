package storage

import (
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertRunSQL = `
INSERT INTO runs (started_at,
                  report_date,
                  config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectRunSQL = `
SELECT
    id,
    started_at,
    report_date,
    config
FROM runs
WHERE
    id = ?`

	selectRunsSQL = `
SELECT
    id,
    started_at,
    report_date,
    config
FROM runs
ORDER BY started_at`

	deleteStationDaySQL = `
DELETE FROM passes
WHERE
    station = ?
    AND pass_date = ?`

	insertPassSQL = `
INSERT INTO passes (run_id,
                    station,
                    satellite,
                    band,
                    pass_date,
                    start_time,
                    end_time,
                    sample_count,
                    peak_snr,
                    mean_snr,
                    is_empty)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	upsertStationStatsSQL = `
INSERT INTO station_stats (run_id,
                           station,
                           stat_day,
                           total_passes,
                           empty_passes,
                           empty_ratio)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (station, stat_day) DO UPDATE SET
    run_id       = excluded.run_id,
    total_passes = excluded.total_passes,
    empty_passes = excluded.empty_passes,
    empty_ratio  = excluded.empty_ratio`

	selectEmptyRatioByDaySQL = `
SELECT
    pass_date,
    COUNT(*),
    SUM(is_empty)
FROM passes
WHERE
    pass_date BETWEEN ? AND ?
    AND (? = '' OR station = ?)
GROUP BY pass_date
ORDER BY pass_date`

	selectStationsSQL = `
SELECT DISTINCT station
FROM passes
ORDER BY station`
)
