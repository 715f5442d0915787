package models

import "time"

// Profile is the canonical user profile record. ID is the surrogate
// storage key and never crosses a service boundary; UserID is the stable
// external identifier shared by every service and every event.
type Profile struct {
	ID          int64     `json:"-"`
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	Version     int64     `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Expense is owned by a single user; CreatedAt is stamped once at first
// persistence and immutable afterwards.
type Expense struct {
	ID         int64     `json:"-"`
	ExternalID string    `json:"external_id"`
	UserID     string    `json:"user_id"`
	Amount     float64   `json:"amount"`
	Merchant   string    `json:"merchant,omitempty"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

// Credential is the auth-service's login record for a user.
type Credential struct {
	ID           int64     `json:"-"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// RefreshToken is an opaque long-lived token bound to one credential.
type RefreshToken struct {
	ID        int64
	UserID    string
	Token     string
	ExpiresAt time.Time
}
