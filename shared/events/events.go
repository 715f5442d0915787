package events

import "time"

// Event types
const (
	ProfileUpserted = "profile.upserted"
	ExpenseCreated  = "expense.created"
)

// Stream names, one per entity kind.
const (
	UserEventsStream    = "user.events"
	ExpenseEventsStream = "expense.events"
)

// Event is the wire envelope. Key carries the entity's external identifier
// so all events for one entity share an ordering scope; Version is the
// producing write's ordering token; consumers discard anything at or below
// the version they already hold.
type Event struct {
	Type      string    `json:"type"`
	Key       string    `json:"key"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ProfileUpsertedEvent carries the full mutable profile snapshot.
// Only the external user id crosses the service boundary, never the
// surrogate row id.
type ProfileUpsertedEvent struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	AvatarRef   string `json:"avatar_ref"`
}

// ExpenseCreatedEvent announces a new expense to interested services.
type ExpenseCreatedEvent struct {
	ExternalID string  `json:"external_id"`
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	Merchant   string  `json:"merchant"`
	Currency   string  `json:"currency"`
}
