package expense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/events"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/chvishal182/finance-panorama/shared/utils"
)

const (
	listCacheKeyPrefix = "expense:user:"
	defaultCurrency    = "INR"
)

// Store is the durable expense store.
type Store interface {
	ListByUserID(ctx context.Context, userID string) ([]models.Expense, error)
	GetByUserAndExternalID(ctx context.Context, userID, externalID string) (*models.Expense, error)
	Create(ctx context.Context, e *models.Expense) error
	Update(ctx context.Context, e *models.Expense) error
}

// ListCache caches the per-user expense list snapshot.
type ListCache interface {
	Get(ctx context.Context, key string) (*[]models.Expense, bool)
	Set(ctx context.Context, key string, value *[]models.Expense)
	Delete(ctx context.Context, key string)
}

// Markers records which event-delivered expenses have been applied, so
// at-least-once redelivery never creates a duplicate row.
type Markers interface {
	IsProcessed(ctx context.Context, externalID string) bool
	MarkProcessed(ctx context.Context, externalID string)
}

// Publisher dispatches change events without blocking the caller.
type Publisher interface {
	PublishAsync(stream, eventType, key string, version int64, data any)
}

// Service owns expense writes, the per-user list cache and the consume-side
// idempotency policy.
type Service struct {
	store     Store
	cache     ListCache
	markers   Markers
	publisher Publisher
}

func NewService(store Store, cache ListCache, markers Markers, publisher Publisher) *Service {
	return &Service{store: store, cache: cache, markers: markers, publisher: publisher}
}

// Create persists a new expense. The external id and created_at are
// assigned exactly once, at first persistence; currency defaults to INR
// when the caller leaves it unset.
func (s *Service) Create(ctx context.Context, e *models.Expense) error {
	if e.UserID == "" {
		return fmt.Errorf("user_id is required: %w", errs.ErrValidation)
	}
	if err := s.createRecord(ctx, e); err != nil {
		return err
	}
	s.publisher.PublishAsync(events.ExpenseEventsStream, events.ExpenseCreated, e.ExternalID, e.CreatedAt.UnixNano(), events.ExpenseCreatedEvent{
		ExternalID: e.ExternalID,
		UserID:     e.UserID,
		Amount:     e.Amount,
		Merchant:   e.Merchant,
		Currency:   e.Currency,
	})
	return nil
}

// createRecord is the publish-free write path shared by the HTTP create and
// the event consumer, which must not echo events back onto the stream it
// consumes.
func (s *Service) createRecord(ctx context.Context, e *models.Expense) error {
	if e.ExternalID == "" {
		e.ExternalID = utils.NewExternalID()
	}
	if e.Currency == "" {
		e.Currency = defaultCurrency
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.store.Create(ctx, e); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCacheKeyPrefix+e.UserID)
	return nil
}

// List is a cache-aside read of a user's expenses. An empty result is a
// valid list, not an error.
func (s *Service) List(ctx context.Context, userID string) ([]models.Expense, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", errs.ErrValidation)
	}

	key := listCacheKeyPrefix + userID
	if cached, ok := s.cache.Get(ctx, key); ok {
		return *cached, nil
	}

	list, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, &list)
	return list, nil
}

// UpdateRequest identifies an expense by owner and external id. Only
// amount, merchant and currency may change after creation.
type UpdateRequest struct {
	UserID     string
	ExternalID string
	Amount     float64
	Merchant   string
	Currency   string
}

// Update overwrites the amount and merges merchant/currency: blank values
// keep what is stored.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*models.Expense, error) {
	if req.UserID == "" || req.ExternalID == "" {
		return nil, fmt.Errorf("user_id and external_id are required: %w", errs.ErrValidation)
	}

	e, err := s.store.GetByUserAndExternalID(ctx, req.UserID, req.ExternalID)
	if err != nil {
		return nil, err
	}

	e.Amount = req.Amount
	if req.Merchant != "" {
		e.Merchant = req.Merchant
	}
	if req.Currency != "" {
		e.Currency = req.Currency
	}
	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, listCacheKeyPrefix+e.UserID)
	return e, nil
}

// HandleExpenseEvent applies expense.created events from other services.
// Idempotent under redelivery: an already-processed external id, or an
// existing row for the same owner and external id, is skipped.
func (s *Service) HandleExpenseEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.ExpenseCreated {
		return nil
	}

	dataBytes, _ := json.Marshal(event.Data)
	var data events.ExpenseCreatedEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("failed to unmarshal expense.created event: %w", err)
	}
	if data.ExternalID == "" || data.UserID == "" {
		return fmt.Errorf("expense.created event missing identifiers: %w", errs.ErrValidation)
	}

	if s.markers.IsProcessed(ctx, data.ExternalID) {
		log.Printf("Expense %s already processed, skipping duplicate event", data.ExternalID)
		return nil
	}
	if _, err := s.store.GetByUserAndExternalID(ctx, data.UserID, data.ExternalID); err == nil {
		s.markers.MarkProcessed(ctx, data.ExternalID)
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	e := &models.Expense{
		ExternalID: data.ExternalID,
		UserID:     data.UserID,
		Amount:     data.Amount,
		Merchant:   data.Merchant,
		Currency:   data.Currency,
	}
	if err := s.createRecord(ctx, e); err != nil {
		return err
	}
	s.markers.MarkProcessed(ctx, data.ExternalID)
	return nil
}
