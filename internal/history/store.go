package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"vidmill/internal/config"
)

// Outcomes recorded per attempt.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Entry is one finished conversion attempt.
type Entry struct {
	ID            string    `json:"id"`
	InputPath     string    `json:"input_path"`
	OutputPath    string    `json:"output_path"`
	Method        string    `json:"method"`
	Outcome       string    `json:"outcome"`
	Detail        string    `json:"detail,omitempty"`
	SourceSeconds float64   `json:"source_seconds"`
	EncodeSeconds float64   `json:"encode_seconds"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Store manages conversion history backed by SQLite.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, maxEntries: cfg.History.MaxEntries}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one finished attempt and prunes the oldest rows beyond
// the configured retention.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	finished := entry.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (
            id, input_path, output_path, method, outcome, detail,
            source_seconds, encode_seconds, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.InputPath,
		entry.OutputPath,
		entry.Method,
		entry.Outcome,
		entry.Detail,
		entry.SourceSeconds,
		entry.EncodeSeconds,
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM conversions WHERE id NOT IN (
                SELECT id FROM conversions ORDER BY finished_at DESC LIMIT ?
            )`,
			s.maxEntries,
		)
		if err != nil {
			return fmt.Errorf("prune conversions: %w", err)
		}
	}
	return nil
}

// List returns the most recent attempts, newest first. A non-positive
// limit returns everything retained.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, input_path, output_path, method, outcome, detail,
        source_seconds, encode_seconds, finished_at
        FROM conversions ORDER BY finished_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var finished string
		if err := rows.Scan(
			&entry.ID,
			&entry.InputPath,
			&entry.OutputPath,
			&entry.Method,
			&entry.Outcome,
			&entry.Detail,
			&entry.SourceSeconds,
			&entry.EncodeSeconds,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, finished); parseErr == nil {
			entry.FinishedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return entries, nil
}
