package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements ModelStore using pgxpool.
type PostgresStore struct {
	pool    Pool
	matcher *elf.Matcher
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgres(pool), nil
}

func newPostgres(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, matcher: elf.NewMatcher(0)}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS elf_models (
	jurisdiction      TEXT PRIMARY KEY,
	id                TEXT NOT NULL,
	samples           INTEGER NOT NULL,
	accuracy          DOUBLE PRECISION NOT NULL DEFAULT 0,
	balanced_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, m *model.Model) error {
	payload, err := model.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO elf_models (jurisdiction, id, samples, accuracy, balanced_accuracy, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (jurisdiction) DO UPDATE SET
			id = EXCLUDED.id,
			samples = EXCLUDED.samples,
			accuracy = EXCLUDED.accuracy,
			balanced_accuracy = EXCLUDED.balanced_accuracy,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`,
		m.Jurisdiction(), m.ID, m.Samples, m.Scores.Accuracy, m.Scores.BalancedAccuracy,
		payload, m.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save model %s", m.Jurisdiction())
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, jurisdiction string) (*model.Model, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM elf_models WHERE jurisdiction = $1`, jurisdiction,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrModelNotFound, "postgres: %s", jurisdiction)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load model %s", jurisdiction)
	}
	m, err := model.Unmarshal(payload, s.matcher)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: decode model %s", jurisdiction)
	}
	return m, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT jurisdiction FROM elf_models ORDER BY jurisdiction`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list models")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, eris.Wrap(err, "postgres: scan jurisdiction")
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate models")
}
