package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ chatex.TokenStore = (*Store)(nil)

const profile = "https://api.chatex.com/v1"

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestStore_SaveLoad(t *testing.T) {
	db := setupDB(t)
	s := New(db, profile, "api-secret", WithClock(fixedClock(1000)))
	ctx := context.Background()

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	token := models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 5000}
	require.NoError(t, s.Save(ctx, token))

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, got)

	rec, err := NewSQLiteRepository(db).Get(ctx, profile)
	require.NoError(t, err)
	assert.NotContains(t, string(rec.Ciphertext), "TOKEN")
	assert.Equal(t, int64(5000), rec.ExpiresAt)
}

func TestStore_ExpiredIsNotLoaded(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, New(db, profile, "api-secret", WithClock(fixedClock(1000))).
		Save(ctx, models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 2000}))

	_, ok, err := New(db, profile, "api-secret", WithClock(fixedClock(2000))).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_WrongSecret(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, New(db, profile, "api-secret", WithClock(fixedClock(1000))).
		Save(ctx, models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 5000}))

	_, ok, err := New(db, profile, "other-secret", WithClock(fixedClock(1000))).Load(ctx)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestStore_ProfilesAreSeparate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, New(db, profile, "api-secret", WithClock(fixedClock(1000))).
		Save(ctx, models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 5000}))

	_, ok, err := New(db, "http://127.0.0.1:8080/v1", "api-secret", WithClock(fixedClock(1000))).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SavePurgesExpiredRows(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewSQLiteRepository(db)

	require.NoError(t, repo.Put(ctx, record("stale", 900)))
	require.NoError(t, New(db, profile, "api-secret", WithClock(fixedClock(1000))).
		Save(ctx, models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 5000}))

	got, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Clear(t *testing.T) {
	db := setupDB(t)
	s := New(db, profile, "api-secret", WithClock(fixedClock(1000)))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, models.AccessToken{AccessToken: "TOKEN", ExpiresAt: 5000}))
	require.NoError(t, s.Clear(ctx))

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
