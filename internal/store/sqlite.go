package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/model"
)

// SQLiteStore implements ModelStore using modernc.org/sqlite.
type SQLiteStore struct {
	db      *sql.DB
	matcher *elf.Matcher
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: empty dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, matcher: elf.NewMatcher(0)}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS elf_models (
	jurisdiction      TEXT PRIMARY KEY,
	id                TEXT NOT NULL,
	samples           INTEGER NOT NULL,
	accuracy          REAL NOT NULL DEFAULT 0,
	balanced_accuracy REAL NOT NULL DEFAULT 0,
	payload           BLOB NOT NULL,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, m *model.Model) error {
	payload, err := model.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO elf_models (jurisdiction, id, samples, accuracy, balanced_accuracy, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (jurisdiction) DO UPDATE SET
			id = excluded.id,
			samples = excluded.samples,
			accuracy = excluded.accuracy,
			balanced_accuracy = excluded.balanced_accuracy,
			payload = excluded.payload,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		m.Jurisdiction(), m.ID, m.Samples, m.Scores.Accuracy, m.Scores.BalancedAccuracy,
		payload, m.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save model %s", m.Jurisdiction())
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, jurisdiction string) (*model.Model, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM elf_models WHERE jurisdiction = ?`, jurisdiction,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrModelNotFound, "sqlite: %s", jurisdiction)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load model %s", jurisdiction)
	}
	m, err := model.Unmarshal(payload, s.matcher)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode model %s", jurisdiction)
	}
	return m, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT jurisdiction FROM elf_models ORDER BY jurisdiction`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list models")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan jurisdiction")
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate models")
}
