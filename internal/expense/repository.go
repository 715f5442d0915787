package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/lib/pq"
)

// Repository is the PostgreSQL expense store. (user_id, external_id) is
// unique; the surrogate id stays local.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]models.Expense, error) {
	query := `
		SELECT id, external_id, user_id, amount, merchant, currency, created_at
		FROM expense
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for %s: %w (%v)", userID, errs.ErrTransient, err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		var merchant sql.NullString
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.UserID, &e.Amount, &merchant, &e.Currency, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w (%v)", errs.ErrTransient, err)
		}
		e.Merchant = merchant.String
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w (%v)", errs.ErrTransient, err)
	}
	return expenses, nil
}

func (r *Repository) GetByUserAndExternalID(ctx context.Context, userID, externalID string) (*models.Expense, error) {
	query := `
		SELECT id, external_id, user_id, amount, merchant, currency, created_at
		FROM expense
		WHERE user_id = $1 AND external_id = $2
	`
	var e models.Expense
	var merchant sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID, externalID).Scan(
		&e.ID, &e.ExternalID, &e.UserID, &e.Amount, &merchant, &e.Currency, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", externalID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %s: %w (%v)", externalID, errs.ErrTransient, err)
	}
	e.Merchant = merchant.String
	return &e, nil
}

func (r *Repository) Create(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expense (external_id, user_id, amount, merchant, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.ExternalID, e.UserID, e.Amount, nullString(e.Merchant), e.Currency, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("expense %s: %w", e.ExternalID, errs.ErrConflict)
		}
		return fmt.Errorf("failed to create expense: %w (%v)", errs.ErrTransient, err)
	}
	return nil
}

// Update changes amount, merchant and currency only. created_at and the
// identifiers are immutable after first persistence.
func (r *Repository) Update(ctx context.Context, e *models.Expense) error {
	query := `
		UPDATE expense
		SET amount = $3, merchant = $4, currency = $5
		WHERE user_id = $1 AND external_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		e.UserID, e.ExternalID, e.Amount, nullString(e.Merchant), e.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense %s: %w (%v)", e.ExternalID, errs.ErrTransient, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w (%v)", errs.ErrTransient, err)
	}
	if rows == 0 {
		return fmt.Errorf("expense %s: %w", e.ExternalID, errs.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
