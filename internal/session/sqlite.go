// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foreman-dev/foreman/pkg/workflow"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists session context in a SQLite database so sessions
// survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig contains SQLite connection configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// NewSQLiteStore opens or creates the session database.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so only 1 connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			data TEXT,
			worker TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Append writes turns to the end of a session's log in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turns ...workflow.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM turns WHERE session_id = ?`, sessionID)
	if err := row.Scan(&next); err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	for i, turn := range turns {
		var data []byte
		if turn.Data != nil {
			data, err = json.Marshal(turn.Data)
			if err != nil {
				return fmt.Errorf("failed to marshal turn data: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, seq, id, role, content, data, worker, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID,
			next+int64(i),
			turn.ID,
			string(turn.Role),
			turn.Content,
			nullableString(data),
			turn.Worker,
			turn.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	return tx.Commit()
}

// Snapshot reads the session's turns in sequence order.
func (s *SQLiteStore) Snapshot(ctx context.Context, sessionID string) (workflow.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, data, worker, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	snapshot := workflow.Snapshot{}
	for rows.Next() {
		var (
			turn      workflow.Turn
			role      string
			data      sql.NullString
			worker    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&turn.ID, &role, &turn.Content, &data, &worker, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = workflow.Role(role)
		turn.Worker = worker.String
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &turn.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal turn data: %w", err)
			}
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse turn timestamp %q: %w", createdAt, err)
		}
		turn.Timestamp = ts
		snapshot = append(snapshot, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return snapshot, nil
}

// Sessions lists distinct session IDs ordered by first activity.
func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM turns GROUP BY session_id ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableString(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
