package transcript

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS prompt_exchanges (
	id            TEXT PRIMARY KEY,
	connection_id TEXT NOT NULL,
	model_id      TEXT NOT NULL,
	provider      TEXT NOT NULL,
	prompt        TEXT NOT NULL,
	response      TEXT NOT NULL,
	stop_reason   TEXT,
	fragments     INTEGER NOT NULL,
	error         TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL
)`

const insertExchangeSQL = `INSERT INTO prompt_exchanges
	(id, connection_id, model_id, provider, prompt, response, stop_reason, fragments, error, started_at, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresRecorder struct {
	db     execer
	closer func()
}

// NewPostgresRecorder connects to dsn and creates the prompt_exchanges table if needed.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create prompt_exchanges table: %w", err)
	}

	return &PostgresRecorder{db: pool, closer: pool.Close}, nil
}

func (p *PostgresRecorder) Record(ctx context.Context, exchange models.Exchange) error {
	_, err := p.db.Exec(ctx, insertExchangeSQL, exchangeArgs(exchange)...)
	if err != nil {
		return fmt.Errorf("failed to insert exchange %s: %w", exchange.ID, err)
	}
	return nil
}

func (p *PostgresRecorder) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}

func exchangeArgs(e models.Exchange) []any {
	return []any{
		e.ID,
		e.ConnectionID,
		e.ModelID,
		e.Provider,
		e.Prompt,
		e.Response,
		nullable(e.StopReason),
		e.Fragments,
		nullable(e.Error),
		e.StartedAt,
		e.Duration.Milliseconds(),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
