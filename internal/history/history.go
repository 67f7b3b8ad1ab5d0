// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records past invocations in a local SQLite database so
// users can review what they asked and what came back.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/xa/internal/config"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultLimit is how many entries Recent returns when the caller does not
// ask for a specific count.
const DefaultLimit = 20

// Record is one stored invocation.
type Record struct {
	ID        int64
	Command   string
	Input     string
	Response  string
	Model     string
	Elapsed   time.Duration
	Truncated bool
	CreatedAt time.Time
}

// DB wraps the history database.
type DB struct {
	db *sql.DB
}

// DefaultPath returns the history database location inside the config dir.
func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// SQLite allows one writer, keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	h := &DB{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) initSchema() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS invocations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			command    TEXT NOT NULL,
			input      TEXT NOT NULL,
			response   TEXT NOT NULL,
			model      TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			truncated  INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_invocations_created
			ON invocations(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing history schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (h *DB) Close() error {
	return h.db.Close()
}

// Add stores one invocation.
func (h *DB) Add(rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(`
		INSERT INTO invocations (command, input, response, model, elapsed_ms, truncated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Command, rec.Input, rec.Response, rec.Model,
		rec.Elapsed.Milliseconds(), boolToInt(rec.Truncated),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording invocation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first. A limit of 0 uses
// DefaultLimit.
func (h *DB) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := h.db.Query(`
		SELECT id, command, input, response, model, elapsed_ms, truncated, created_at
		FROM invocations
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var elapsedMs int64
		var truncated int
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.Input, &rec.Response,
			&rec.Model, &elapsedMs, &truncated, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		rec.Truncated = truncated != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return records, nil
}

// Clear removes all history entries.
func (h *DB) Clear() error {
	_, err := h.db.Exec(`DELETE FROM invocations`)
	if err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
