package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      source,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    source,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    source,
    config
FROM sessions
ORDER BY start_time, id`

	insertSampleSQL = `
INSERT INTO samples (session_id,
                     tag,
                     timestamp,
                     num_value,
                     bool_value)
VALUES `

	countSamplesSQL = `
SELECT
    COUNT(*),
    COUNT(DISTINCT timestamp)
FROM samples
%s`

	// selectSamplesSQL keeps every stride-th distinct timestamp and then whole
	// timestamps while their running sample total stays within the limit.
	// The first kept timestamp is always returned.
	selectSamplesSQL = `
WITH filtered AS (
    SELECT tag, timestamp, num_value, bool_value
    FROM samples
    %s
), ticks AS (
    SELECT
        timestamp,
        COUNT(*) AS n,
        ROW_NUMBER() OVER (ORDER BY timestamp) - 1 AS rn
    FROM filtered
    GROUP BY timestamp
), kept AS (
    SELECT
        timestamp,
        SUM(n) OVER (ORDER BY timestamp) AS total
    FROM ticks
    WHERE rn %% ? = 0
)
SELECT
    f.tag,
    f.timestamp,
    f.num_value,
    f.bool_value
FROM filtered f
JOIN kept k ON k.timestamp = f.timestamp
WHERE k.total <= ? OR k.total = (SELECT MIN(total) FROM kept)
ORDER BY f.timestamp, f.tag`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples (timestamp, tag);
CREATE INDEX IF NOT EXISTS idx_samples_session ON samples (session_id);`
)

//go:embed schema.sql
var initSchemaSQL string
