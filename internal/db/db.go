// Package db persists classified activity samples in SQLite and serves the
// range and latest-sample queries the timeline aggregator and HTTP API
// consume.
package db

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/activity.report/internal/activity"
)

// DateTimeLayout is the human-readable timestamp format stored alongside the
// Unix timestamp, matching the layout consumers expect.
const DateTimeLayout = "2006-01-02 15:04:05"

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the activity database at path and ensures
// the base schema exists. Later schema changes run through MigrateUp.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS activities (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			date_time   TEXT NOT NULL,
			activity    TEXT NOT NULL,
			confidence  REAL DEFAULT 1.0,
			metadata    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordSample inserts one classified sample and returns its assigned ID.
func (db *DB) RecordSample(s activity.Sample) (int64, error) {
	var metadata any
	if len(s.Metadata) > 0 {
		encoded, err := json.Marshal(s.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode sample metadata: %w", err)
		}
		metadata = string(encoded)
	}

	dateTime := s.DateTime
	if dateTime == "" {
		dateTime = time.Unix(s.Timestamp, 0).Format(DateTimeLayout)
	}

	result, err := db.Exec(
		`INSERT INTO activities (timestamp, date_time, activity, confidence, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
		s.Timestamp, dateTime, string(s.Label), s.Confidence, metadata,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get sample ID: %w", err)
	}
	return id, nil
}

// LatestSample returns the most recent sample, or (nil, nil) when the
// database holds none.
func (db *DB) LatestSample() (*activity.Sample, error) {
	rows, err := db.Query(
		`SELECT id, timestamp, date_time, activity, confidence, metadata
		 FROM activities ORDER BY timestamp DESC LIMIT 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanSample(rows)
	if err != nil {
		return nil, err
	}
	return &s, rows.Err()
}

// SamplesBetween returns up to limit samples with start <= timestamp < end,
// most recent first. A nil bound leaves that side of the window open; a
// non-positive limit falls back to 100.
func (db *DB) SamplesBetween(start, end *int64, limit int) ([]activity.Sample, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, timestamp, date_time, activity, confidence, metadata FROM activities`
	var params []any
	var where []string

	if start != nil {
		where = append(where, "timestamp >= ?")
		params = append(params, *start)
	}
	if end != nil {
		where = append(where, "timestamp < ?")
		params = append(params, *end)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	params = append(params, limit)

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []activity.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// SamplesSince returns all samples at or after start in chronological order,
// the shape the timeline aggregator consumes.
func (db *DB) SamplesSince(start int64) ([]activity.Sample, error) {
	rows, err := db.Query(
		`SELECT id, timestamp, date_time, activity, confidence, metadata
		 FROM activities WHERE timestamp >= ? ORDER BY timestamp ASC`, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []activity.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func scanSample(rows *sql.Rows) (activity.Sample, error) {
	var s activity.Sample
	var label string
	var metadata sql.NullString

	if err := rows.Scan(&s.ID, &s.Timestamp, &s.DateTime, &label, &s.Confidence, &metadata); err != nil {
		return activity.Sample{}, err
	}
	s.Label = activity.Label(label)

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &s.Metadata); err != nil {
			return activity.Sample{}, fmt.Errorf("failed to decode sample metadata: %w", err)
		}
	}
	return s, nil
}

// AttachAdminRoutes mounts debugging endpoints on mux under /debug/: a live
// tailsql console over the activity database and an on-demand gzip backup
// download. These routes are not intended for public exposure.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://activity.db", db.DB, &tailsql.DBOptions{
		Label: "Activity DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
