// Package db is the sqlite history store: every command line the daemon
// accepts, every acknowledgement it writes, auto-init and shutdown events,
// and sampled status snapshots, all stamped with a per-process run id.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/armlink/internal/arm"
	"github.com/banshee-data/armlink/internal/monitoring"
)

// DB wraps the sqlite handle together with the run this process writes
// under.
type DB struct {
	*sql.DB
	runID string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if necessary) the history database at path, applies
// pragmas and pending migrations, and registers a new run for this process.
func Open(path, armID string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("applying %s: %w", p, err)
		}
	}

	db := &DB{DB: sqlDB, runID: uuid.NewString()}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if _, err := db.Exec("INSERT INTO runs (run_id, arm_id) VALUES (?, ?)", db.runID, armID); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("registering run: %w", err)
	}
	return db, nil
}

// RunID returns this process's run identifier.
func (db *DB) RunID() string { return db.runID }

// RecordCommand stores an accepted input line.
func (db *DB) RecordCommand(line string) {
	db.insert("INSERT INTO commands (run_id, line) VALUES (?, ?)", db.runID, line)
}

// RecordAck stores an acknowledgement line.
func (db *DB) RecordAck(ack string) {
	db.insert("INSERT INTO acks (run_id, line) VALUES (?, ?)", db.runID, ack)
}

// RecordEvent stores a lifecycle event.
func (db *DB) RecordEvent(kind, detail string) {
	db.insert("INSERT INTO events (run_id, kind, detail) VALUES (?, ?, ?)", db.runID, kind, detail)
}

// RecordStatus stores a status snapshot.
func (db *DB) RecordStatus(st *arm.Status) {
	db.insert(`INSERT INTO status_samples
		(run_id, robot_mode, time_ms, joint_0, joint_1, joint_2, joint_3, joint_4, joint_5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		db.runID, st.RobotMode, int64(st.TimeMS),
		st.Joints[0], st.Joints[1], st.Joints[2], st.Joints[3], st.Joints[4], st.Joints[5])
}

// insert runs a write, logging failures instead of returning them: history
// is an observability aid and must never take the control loop down.
func (db *DB) insert(query string, args ...interface{}) {
	if _, err := db.Exec(query, args...); err != nil {
		monitoring.Logf("history write failed: %v", err)
	}
}

// CommandRecord is one row of command or acknowledgement history.
type CommandRecord struct {
	RunID     string    `json:"run_id"`
	Line      string    `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentCommands returns the most recent command lines, newest first.
func (db *DB) RecentCommands(limit int) ([]CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		"SELECT run_id, line, timestamp FROM commands ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying commands: %w", err)
	}
	defer rows.Close()

	var records []CommandRecord
	for rows.Next() {
		var r CommandRecord
		if err := rows.Scan(&r.RunID, &r.Line, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning command row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// EventRecord is one lifecycle event row.
type EventRecord struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentEvents returns the most recent lifecycle events, newest first.
func (db *DB) RecentEvents(limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		"SELECT run_id, kind, detail, timestamp FROM events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var r EventRecord
		if err := rows.Scan(&r.RunID, &r.Kind, &r.Detail, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
