package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetProspect_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM prospects WHERE id = \$1 AND NOT deleted`).
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProspect(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveProspect_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO prospects .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(
			pgxmock.AnyArg(), "Acme s.r.o.", "info@acme.cz", "12345679", "",
			"new", 0, pgxmock.AnyArg(), false, pgxmock.AnyArg(), "", false,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := prospect.NewDraft("Acme s.r.o.", time.Now())
	rec.Email = "info@acme.cz"
	rec.ICO = "12345679"
	require.NoError(t, s.SaveProspect(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCached_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM api_cache`).
		WithArgs(CacheRegistry, "99999999").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetCached(context.Background(), CacheRegistry, "99999999")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCached_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO api_cache .* ON CONFLICT \(kind, cache_key\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), CacheWebsite, "https://acme.cz", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCached(context.Background(), CacheWebsite, "https://acme.cz", []byte(`{}`), 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProspect_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE prospects SET deleted = TRUE`).
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.DeleteProspect(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM api_cache WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PendingFollowups(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"p1","company_name":"Due s.r.o.","status":"sent","sequence_position":1,"validated":true}`))

	mock.ExpectQuery(`SELECT data FROM prospects`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	got, err := s.PendingFollowups(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Due s.r.o.", got[0].CompanyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
