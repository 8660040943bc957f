// SPDX-License-Identifier: MIT
package storage

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      source,
                      sample_rate,
                      config)
VALUES (?, ?, ?, ?)`

	endSessionSQL = `
UPDATE sessions
SET end_time = ?
WHERE id = ?`

	selectSessionSQL = `
SELECT s.id,
       s.start_time,
       s.end_time,
       s.source,
       s.sample_rate,
       s.config,
       (SELECT COUNT(*) FROM snapshots WHERE session_id = s.id)
FROM sessions s
WHERE s.id = ?`

	selectSessionsSQL = `
SELECT s.id,
       s.start_time,
       s.end_time,
       s.source,
       s.sample_rate,
       s.config,
       (SELECT COUNT(*) FROM snapshots WHERE session_id = s.id)
FROM sessions s
ORDER BY s.id`

	insertSnapshotSQL = `
INSERT INTO snapshots (session_id,
                       timestamp,
                       running,
                       bands,
                       peaks,
                       bands_right,
                       peaks_right)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectSnapshotsSQL = `
SELECT timestamp,
       running,
       bands,
       peaks,
       bands_right,
       peaks_right
FROM snapshots
WHERE session_id = ?
ORDER BY timestamp, id`
)
