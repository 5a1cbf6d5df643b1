package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dangoo/shop-backend/internal/model"
)

// TokenRepo persists refresh tokens.  Only SHA-256 digests are ever
// stored; the login and refresh handlers hash the raw token before it
// reaches this layer, so a leaked table cannot be replayed.  Rotation
// is revoke-then-store under the UNIQUE token_hash constraint.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh records a token digest for the user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a token digest to its owning user.  Revoked
// and expired tokens are indistinguishable from missing ones: all three
// cases return sql.ErrNoRows so the handler answers with one generic
// 401.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT id, user_id, token_hash, expires_at, revoked_at
	           FROM refresh_tokens WHERE token_hash = ? LIMIT 1`
	var (
		tok     model.RefreshToken
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash).
		Scan(&tok.ID, &tok.UserID, &tok.TokenHash, &tok.ExpiresAt, &revoked)
	if err != nil {
		return 0, err
	}
	if revoked.Valid || time.Now().UTC().After(tok.ExpiresAt) {
		return 0, sql.ErrNoRows
	}
	return tok.UserID, nil
}

// RevokeByHash retires a single token.  Revoking an already-revoked or
// unknown digest is a no-op, which keeps rotation idempotent when a
// client retries.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForUser retires every active token of the user.  Password
// changes call this so stolen sessions die with the old credential.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
