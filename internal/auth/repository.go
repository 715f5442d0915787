package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/lib/pq"
)

// CredentialRepository is the PostgreSQL credential store.
type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(ctx context.Context, c *models.Credential) error {
	query := `
		INSERT INTO credentials (user_id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.Username, c.Email, c.PasswordHash, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("username or email: %w", errs.ErrConflict)
		}
		return fmt.Errorf("failed to create credential: %w (%v)", errs.ErrTransient, err)
	}
	return nil
}

func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*models.Credential, error) {
	query := `
		SELECT id, user_id, username, email, password_hash, created_at
		FROM credentials
		WHERE username = $1
	`
	var c models.Credential
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&c.ID, &c.UserID, &c.Username, &c.Email, &c.PasswordHash, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", username, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w (%v)", errs.ErrTransient, err)
	}
	return &c, nil
}

// TokenRepository is the PostgreSQL refresh token store.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, t.UserID, t.Token, t.ExpiresAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w (%v)", errs.ErrTransient, err)
	}
	return nil
}

func (r *TokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`
	var t models.RefreshToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("refresh token: %w", errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w (%v)", errs.ErrTransient, err)
	}
	return &t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w (%v)", errs.ErrTransient, err)
	}
	return nil
}
