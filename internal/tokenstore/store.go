// Package tokenstore persists Chatex access tokens between CLI runs. Tokens
// are encrypted with a key derived from the API secret, so a cache file is
// useless without the secret that produced it.
package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatex/internal/cryptox"
	"github.com/dmitrijs2005/chatex/internal/dbx"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
)

// Store implements chatex.TokenStore for one API profile.
type Store struct {
	db      *sql.DB
	repo    Repository
	profile string
	secret  []byte
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store keeping the token of profile (typically the API base
// URL) encrypted under secret.
func New(db *sql.DB, profile, secret string, opts ...Option) *Store {
	s := &Store{
		db:      db,
		repo:    NewSQLiteRepository(db),
		profile: profile,
		secret:  []byte(secret),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored token. ok is false when nothing is stored or the
// stored token has already expired. A token sealed under another secret is
// reported as an error.
func (s *Store) Load(ctx context.Context) (models.AccessToken, bool, error) {
	rec, err := s.repo.Get(ctx, s.profile)
	if err != nil {
		return models.AccessToken{}, false, err
	}
	if rec == nil || rec.ExpiresAt <= s.now().Unix() {
		return models.AccessToken{}, false, nil
	}

	key := cryptox.DeriveKey(s.secret, rec.Salt)
	defer cryptox.Wipe(key)

	plaintext, err := cryptox.Open(rec.Ciphertext, rec.Nonce, key)
	if err != nil {
		return models.AccessToken{}, false, fmt.Errorf("failed to decrypt access token[%s]: %w", s.profile, err)
	}

	defer cryptox.Wipe(plaintext)

	var token models.AccessToken
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return models.AccessToken{}, false, fmt.Errorf("failed to decode access token[%s]: %w", s.profile, err)
	}
	return token, true, nil
}

// Save encrypts and upserts token, dropping any expired rows in the same
// transaction.
func (s *Store) Save(ctx context.Context, token models.AccessToken) error {
	plaintext, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode access token: %w", err)
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	defer cryptox.Wipe(plaintext)

	key := cryptox.DeriveKey(s.secret, salt)
	defer cryptox.Wipe(key)

	ciphertext, nonce, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := s.now().Unix()
	rec := Record{
		Profile:    s.profile,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		ExpiresAt:  token.ExpiresAt,
		UpdatedAt:  now,
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if _, err := repo.PurgeExpired(ctx, now); err != nil {
			return err
		}
		return repo.Put(ctx, rec)
	})
}

// Clear forgets the stored token of this profile.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.profile)
}
