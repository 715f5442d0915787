package profile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/lib/pq"
)

// Repository is the PostgreSQL profile store. The surrogate id column is
// the primary key; user_id carries a unique index and is the only
// identifier ever exposed outside this service.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone_number, avatar_ref, version, updated_at
		FROM user_info
		WHERE user_id = $1
	`
	var p models.Profile
	var firstName, lastName, email, phone, avatar sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &firstName, &lastName, &email, &phone, &avatar,
		&p.Version, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w (%v)", userID, errs.ErrTransient, err)
	}

	p.FirstName = firstName.String
	p.LastName = lastName.String
	p.Email = email.String
	p.PhoneNumber = phone.String
	p.AvatarRef = avatar.String
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO user_info (user_id, first_name, last_name, email, phone_number, avatar_ref, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, nullString(p.FirstName), nullString(p.LastName), nullString(p.Email),
		nullString(p.PhoneNumber), nullString(p.AvatarRef), p.Version, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("user %s: %w", p.UserID, errs.ErrConflict)
		}
		return fmt.Errorf("failed to create user %s: %w (%v)", p.UserID, errs.ErrTransient, err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE user_info
		SET first_name = $2, last_name = $3, email = $4, phone_number = $5,
			avatar_ref = $6, version = $7, updated_at = $8
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		p.UserID, nullString(p.FirstName), nullString(p.LastName), nullString(p.Email),
		nullString(p.PhoneNumber), nullString(p.AvatarRef), p.Version, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w (%v)", p.UserID, errs.ErrTransient, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w (%v)", errs.ErrTransient, err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", p.UserID, errs.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
