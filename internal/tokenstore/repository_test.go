package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(profile string, expiresAt int64) Record {
	return Record{
		Profile:    profile,
		Salt:       []byte("salt"),
		Nonce:      []byte("nonce"),
		Ciphertext: []byte{0x01, 0x02},
		ExpiresAt:  expiresAt,
		UpdatedAt:  100,
	}
}

func TestPutAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, record("https://api.chatex.com/v1", 2000)))

	got, err := r.Get(ctx, "https://api.chatex.com/v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record("https://api.chatex.com/v1", 2000), *got)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPut_UpsertOverwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, record("p", 1000)))
	updated := record("p", 3000)
	updated.Ciphertext = []byte("new")
	require.NoError(t, r.Put(ctx, updated))

	got, err := r.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.ExpiresAt)
	assert.Equal(t, []byte("new"), got.Ciphertext)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, record("p", 1000)))
	require.NoError(t, r.Delete(ctx, "p"))
	require.NoError(t, r.Delete(ctx, "p"))

	got, err := r.Get(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPurgeExpired(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, record("old", 1000)))
	require.NoError(t, r.Put(ctx, record("edge", 1500)))
	require.NoError(t, r.Put(ctx, record("fresh", 2000)))

	n, err := r.PurgeExpired(ctx, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := r.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRepository_ErrorPaths(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT salt, nonce, ciphertext").WithArgs("p").WillReturnError(boom)
	_, err = r.Get(ctx, "p")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get access token[p]")

	mock.ExpectExec("INSERT INTO access_tokens").WillReturnError(boom)
	require.ErrorIs(t, r.Put(ctx, record("p", 1)), boom)

	mock.ExpectExec("DELETE FROM access_tokens WHERE profile").WithArgs("p").WillReturnError(boom)
	require.ErrorIs(t, r.Delete(ctx, "p"), boom)

	mock.ExpectExec("DELETE FROM access_tokens WHERE expires_at").WithArgs(int64(5)).WillReturnError(boom)
	_, err = r.PurgeExpired(ctx, 5)
	require.ErrorIs(t, err, boom)

	mock.ExpectExec("DELETE FROM access_tokens WHERE expires_at").WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewErrorResult(boom))
	_, err = r.PurgeExpired(ctx, 5)
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Error(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("migration failed")
	gooseUp = func(context.Context, *sql.DB) error { return boom }

	_, err := OpenDB(context.Background(), ":memory:")
	require.ErrorIs(t, err, boom)
}
