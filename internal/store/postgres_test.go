package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return newPostgres(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS elf_models`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	m := testModel(t, "DE")

	mock.ExpectExec(`(?s)INSERT INTO elf_models .*ON CONFLICT \(jurisdiction\) DO UPDATE`).
		WithArgs("DE", m.ID, 2, 0.5, 0.25, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), m))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO elf_models`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(eris.New("connection reset"))

	err := s.Save(context.Background(), testModel(t, "DE"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save model DE")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	m := testModel(t, "DE")
	payload, err := model.Marshal(m)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM elf_models WHERE jurisdiction = \$1`).
		WithArgs("DE").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.Load(context.Background(), "DE")
	require.NoError(t, err)
	assertSameModel(t, m, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM elf_models`).
		WithArgs("FR").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Load(context.Background(), "FR")
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT jurisdiction FROM elf_models ORDER BY jurisdiction`).
		WillReturnRows(pgxmock.NewRows([]string{"jurisdiction"}).AddRow("DE").AddRow("US-DE"))

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "US-DE"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
