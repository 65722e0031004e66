package reflection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/viant/routegate/model"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS reflections (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id   TEXT NOT NULL,
	input      TEXT NOT NULL,
	intent     TEXT NOT NULL,
	status     TEXT NOT NULL,
	workflow   TEXT,
	output     TEXT,
	context    TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reflections_trace ON reflections(trace_id);`

// SQLiteJournal stores entries in a SQLite database.
type SQLiteJournal struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// OpenSQLite opens (creating when needed) the journal at path.
func OpenSQLite(path string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLiteJournal{db: db, path: path}, nil
}

// Path returns the database path.
func (j *SQLiteJournal) Path() string { return j.path }

// Append inserts an entry.
func (j *SQLiteJournal) Append(ctx context.Context, entry *Entry) error {
	values, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("encode context of %v: %w", entry.TraceID, err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO reflections (trace_id, input, intent, status, workflow, output, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TraceID, entry.Input, entry.Intent, string(entry.Status), entry.Workflow, entry.Output,
		string(values), entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append reflection %v: %w", entry.TraceID, err)
	}
	return nil
}

// Recent returns up to limit latest entries, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultRetention
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT trace_id, input, intent, status, workflow, output, context, created_at
		 FROM reflections ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reflections: %w", err)
	}
	defer rows.Close()
	var ret []*Entry
	for rows.Next() {
		var (
			entry             Entry
			status, createdAt string
			workflow, output  sql.NullString
			values            sql.NullString
		)
		if err := rows.Scan(&entry.TraceID, &entry.Input, &entry.Intent, &status, &workflow, &output, &values, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		entry.Status = model.Status(status)
		entry.Workflow = workflow.String
		entry.Output = output.String
		if values.Valid && values.String != "" && values.String != "null" {
			if err := json.Unmarshal([]byte(values.String), &entry.Context); err != nil {
				return nil, fmt.Errorf("decode context of %v: %w", entry.TraceID, err)
			}
		}
		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %v: %w", entry.TraceID, err)
		}
		ret = append(ret, &entry)
	}
	return ret, rows.Err()
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

var _ Journal = (*SQLiteJournal)(nil)
