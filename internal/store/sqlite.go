package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at path, creating its directory, and
// configures WAL mode.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer at a time; pragmas are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS support_calls (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	file_hash      TEXT UNIQUE,
	transcript     TEXT NOT NULL,
	sentiment      TEXT NOT NULL,
	issue_category TEXT NOT NULL,
	urgency        TEXT NOT NULL,
	agent_behavior TEXT NOT NULL,
	call_outcome   TEXT NOT NULL,
	llm_status     TEXT NOT NULL DEFAULT 'ok',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_support_calls_created_at ON support_calls(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, c NewCall) (InsertResult, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO support_calls (file_hash, transcript, sentiment, issue_category, urgency, agent_behavior, call_outcome, llm_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_hash) DO NOTHING
		RETURNING id`,
		nullableHash(c.FileHash), c.Transcript,
		string(c.Analysis.Sentiment), joinCategories(c.Analysis.IssueCategory),
		string(c.Analysis.Urgency), string(c.Analysis.AgentBehavior), string(c.Analysis.CallOutcome),
		string(c.LLMStatus), time.Now().UTC(),
	).Scan(&id)
	if err == nil {
		return InsertResult{Inserted: true, ID: id}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return InsertResult{}, fmt.Errorf("sqlite: insert call: %w", err)
	}

	existing, err := s.FindByHash(ctx, c.FileHash)
	if err != nil {
		return InsertResult{}, err
	}
	if existing == nil {
		return InsertResult{}, fmt.Errorf("sqlite: insert call: conflict on %s but no row found", c.FileHash)
	}
	return InsertResult{ID: existing.ID, Reason: ReasonDuplicate}, nil
}

func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (*Call, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM support_calls WHERE file_hash = ?`, hash)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find by hash: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+callColumns+` FROM support_calls ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan call: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list calls: %w", err)
	}
	return calls, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM support_calls WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete call %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	sum := newSummary()
	for column, dist := range map[string]map[string]int{
		"sentiment":    sum.Sentiment,
		"urgency":      sum.Urgency,
		"call_outcome": sum.CallOutcome,
	} {
		rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM support_calls GROUP BY `+column)
		if err != nil {
			return Summary{}, fmt.Errorf("sqlite: summary %s: %w", column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return Summary{}, fmt.Errorf("sqlite: scan summary: %w", err)
			}
			dist[key] = n
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return Summary{}, fmt.Errorf("sqlite: summary %s: %w", column, err)
		}
	}
	return sum, nil
}
