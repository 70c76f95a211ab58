package leadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseforge/site/internal/platform/database"
)

const dbTimeout = 5 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		id            uuid PRIMARY KEY,
		kind          text NOT NULL,
		token_hash    text NOT NULL UNIQUE,
		email         text NOT NULL,
		topic         text NOT NULL,
		params        jsonb NOT NULL DEFAULT '{}'::jsonb,
		raw_content   text NOT NULL,
		model         text,
		provider      text,
		input_tokens  integer,
		output_tokens integer,
		created_at    timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_email_created_at_idx
		ON submissions (email, created_at)`,
}

// PostgresStore is a PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool. Call EnsureSchema before use on
// a fresh database.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the submissions table and its indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return database.Migrate(ctx, s.pool, schema...)
}

func (s *PostgresStore) Create(ctx context.Context, sub *Submission) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if sub.TokenHash == "" {
		return fmt.Errorf("token hash is required")
	}
	prepare(sub)

	params, err := json.Marshal(sub.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions
		   (id, kind, token_hash, email, topic, params, raw_content, model, provider, input_tokens, output_tokens, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12)`,
		sub.ID,
		string(sub.Kind),
		sub.TokenHash,
		sub.Email,
		sub.Topic,
		string(params),
		sub.Raw,
		nullIfEmpty(sub.Model),
		nullIfEmpty(sub.Provider),
		nullIfZero(sub.InputTokens),
		nullIfZero(sub.OutputTokens),
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByToken(ctx context.Context, kind Kind, tokenHash string) (*Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sub := &Submission{TokenHash: tokenHash}
	var kindStr string
	var params []byte
	var model, provider *string
	var inputTokens, outputTokens *int

	err := s.pool.QueryRow(ctx,
		`SELECT id::text, kind, email, topic, params, raw_content, model, provider, input_tokens, output_tokens, created_at
		 FROM submissions
		 WHERE token_hash = $1 AND kind = $2
		 LIMIT 1`,
		tokenHash,
		string(kind),
	).Scan(
		&sub.ID,
		&kindStr,
		&sub.Email,
		&sub.Topic,
		&params,
		&sub.Raw,
		&model,
		&provider,
		&inputTokens,
		&outputTokens,
		&sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	sub.Kind = Kind(kindStr)
	sub.Params = map[string]string{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &sub.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	if model != nil {
		sub.Model = *model
	}
	if provider != nil {
		sub.Provider = *provider
	}
	if inputTokens != nil {
		sub.InputTokens = *inputTokens
	}
	if outputTokens != nil {
		sub.OutputTokens = *outputTokens
	}
	return sub, nil
}

func (s *PostgresStore) CountByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE email = $1 AND created_at >= $2`,
		email,
		since,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func nullIfZero(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
