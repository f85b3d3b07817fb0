package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatex/internal/dbx"
)

// Record is one encrypted access token as stored on disk. ExpiresAt is kept
// in clear so expired rows can be purged without the key.
type Record struct {
	Profile    string
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
	ExpiresAt  int64
	UpdatedAt  int64
}

type Repository interface {
	Get(ctx context.Context, profile string) (*Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, profile string) error
	PurgeExpired(ctx context.Context, now int64) (int64, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns (nil, nil) when nothing is stored for profile.
func (r *SQLiteRepository) Get(ctx context.Context, profile string) (*Record, error) {
	rec := Record{Profile: profile}
	err := r.db.QueryRowContext(ctx, `
		SELECT salt, nonce, ciphertext, expires_at, updated_at
		FROM access_tokens WHERE profile = ?
	`, profile).Scan(&rec.Salt, &rec.Nonce, &rec.Ciphertext, &rec.ExpiresAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access token[%s]: %w", profile, err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (profile, salt, nonce, ciphertext, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			salt = excluded.salt,
			nonce = excluded.nonce,
			ciphertext = excluded.ciphertext,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, rec.Profile, rec.Salt, rec.Nonce, rec.Ciphertext, rec.ExpiresAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put access token[%s]: %w", rec.Profile, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, profile string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE profile = ?`, profile)
	if err != nil {
		return fmt.Errorf("failed to delete access token[%s]: %w", profile, err)
	}
	return nil
}

// PurgeExpired removes rows whose expires_at is not after now and reports
// how many were removed.
func (r *SQLiteRepository) PurgeExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired access tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged access tokens: %w", err)
	}
	return n, nil
}
