package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS support_calls (
	id             BIGSERIAL PRIMARY KEY,
	file_hash      TEXT UNIQUE,
	transcript     TEXT NOT NULL,
	sentiment      TEXT NOT NULL,
	issue_category TEXT NOT NULL,
	urgency        TEXT NOT NULL,
	agent_behavior TEXT NOT NULL,
	call_outcome   TEXT NOT NULL,
	llm_status     TEXT NOT NULL DEFAULT 'ok',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_support_calls_created_at ON support_calls(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, c NewCall) (InsertResult, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO support_calls (file_hash, transcript, sentiment, issue_category, urgency, agent_behavior, call_outcome, llm_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (file_hash) DO NOTHING
		RETURNING id`,
		nullableHash(c.FileHash), c.Transcript,
		string(c.Analysis.Sentiment), joinCategories(c.Analysis.IssueCategory),
		string(c.Analysis.Urgency), string(c.Analysis.AgentBehavior), string(c.Analysis.CallOutcome),
		string(c.LLMStatus),
	).Scan(&id)
	if err == nil {
		return InsertResult{Inserted: true, ID: id}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return InsertResult{}, fmt.Errorf("postgres: insert call: %w", err)
	}

	existing, err := s.FindByHash(ctx, c.FileHash)
	if err != nil {
		return InsertResult{}, err
	}
	if existing == nil {
		return InsertResult{}, fmt.Errorf("postgres: insert call: conflict on %s but no row found", c.FileHash)
	}
	return InsertResult{ID: existing.ID, Reason: ReasonDuplicate}, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Call, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM support_calls WHERE file_hash = $1`, hash)
	c, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find by hash: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Call, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+callColumns+` FROM support_calls ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan call: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list calls: %w", err)
	}
	return calls, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM support_calls WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete call %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	sum := newSummary()
	rows, err := s.pool.Query(ctx, `
		SELECT 'sentiment', sentiment, COUNT(*) FROM support_calls GROUP BY sentiment
		UNION ALL
		SELECT 'urgency', urgency, COUNT(*) FROM support_calls GROUP BY urgency
		UNION ALL
		SELECT 'call_outcome', call_outcome, COUNT(*) FROM support_calls GROUP BY call_outcome`)
	if err != nil {
		return Summary{}, fmt.Errorf("postgres: summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var column, key string
		var n int64
		if err := rows.Scan(&column, &key, &n); err != nil {
			return Summary{}, fmt.Errorf("postgres: scan summary: %w", err)
		}
		switch column {
		case "sentiment":
			sum.Sentiment[key] = int(n)
		case "urgency":
			sum.Urgency[key] = int(n)
		case "call_outcome":
			sum.CallOutcome[key] = int(n)
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("postgres: summary: %w", err)
	}
	return sum, nil
}
