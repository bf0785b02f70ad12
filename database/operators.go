package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/survey-portal/survey"
)

func (s *Store) PasswordHash(ctx context.Context, username string) (hash []byte, err error) {
	err = s.db.QueryRowContext(ctx, s.q(`
		SELECT password_hash FROM operator WHERE username = ?`),
		username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, survey.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db.get_password_hash: %w", err)
	}
	return hash, nil
}

// SaveOperator creates the operator account or replaces its password hash.
func (s *Store) SaveOperator(ctx context.Context, username string, hash []byte) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO operator (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`),
		username,
		hash,
	)
	if err != nil {
		return fmt.Errorf("db.save_operator: %w", err)
	}
	return nil
}

func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO operator_token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`),
		username,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	if err != nil {
		return fmt.Errorf("db.store_token: %w", err)
	}
	return nil
}

// ConsumeToken deletes a stored refresh token and returns its expiration.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (expiration time.Time, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("db.begin_tx: %w", err)
	}
	defer tx.Rollback()

	const where = `
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`

	err = tx.QueryRowContext(ctx, s.q(`SELECT expiration FROM operator_token`+where),
		username, tokenID, refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, survey.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("db.consume_token: %w", err)
	}

	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM operator_token`+where),
		username, tokenID, refreshTokenID,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("db.consume_token.delete: %w", err)
	}
	// lost a race with another refresh of the same token
	if n, err := res.RowsAffected(); err == nil && n < 1 {
		return time.Time{}, survey.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("db.consume_token.commit: %w", err)
	}
	return expiration, nil
}
