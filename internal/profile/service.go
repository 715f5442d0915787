package profile

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

const cacheKeyPrefix = "user:"

// Store is the durable profile store. It owns truth; the cache is only an
// accelerator in front of it.
type Store interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, p *models.Profile) error
}

// Cache is the disposable snapshot cache keyed by "user:" + user id.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Profile, bool)
	Set(ctx context.Context, key string, value *models.Profile)
	Delete(ctx context.Context, key string)
}

// Publisher dispatches change events without blocking the caller.
type Publisher interface {
	PublishAsync(stream, eventType, key string, version int64, data any)
}

// Service coordinates the durable store, the cache and the event publisher.
// Writes go store-first, then cache, then a best-effort publish; reads are
// cache-aside.
type Service struct {
	store     Store
	cache     Cache
	publisher Publisher
}

func NewService(store Store, cache Cache, publisher Publisher) *Service {
	return &Service{store: store, cache: cache, publisher: publisher}
}

// UpsertRequest carries the mutable profile fields. Empty fields are
// treated as "not supplied" and never overwrite stored values.
type UpsertRequest struct {
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	AvatarRef   string
}

// Upsert creates or merges the profile identified by UserID, assigning an
// identifier when none is supplied. The durable write happens first; the
// cache entry and the published event follow and are never rolled back;
// propagation to other services is advisory, the store already holds truth.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*models.Profile, error) {
	now := time.Now().UTC()
	version := now.UnixNano()

	var p *models.Profile
	if req.UserID == "" {
		p = &models.Profile{UserID: utils.GenerateID("usr"), Version: version, UpdatedAt: now}
		mergeFields(p, req)
		if err := s.store.Create(ctx, p); err != nil {
			return nil, err
		}
	} else {
		existing, err := s.store.GetByUserID(ctx, req.UserID)
		switch {
		case err == nil:
			p = existing
			mergeFields(p, req)
			p.Version = version
			p.UpdatedAt = now
			if err := s.store.Update(ctx, p); err != nil {
				return nil, err
			}
		case errors.Is(err, errs.ErrNotFound):
			p = &models.Profile{UserID: req.UserID, Version: version, UpdatedAt: now}
			mergeFields(p, req)
			if err := s.store.Create(ctx, p); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	s.cache.Set(ctx, cacheKeyPrefix+p.UserID, p)
	s.publisher.PublishAsync(events.UserEventsStream, events.ProfileUpserted, p.UserID, p.Version, events.ProfileUpsertedEvent{
		UserID:      p.UserID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		AvatarRef:   p.AvatarRef,
	})
	return p, nil
}

// Get is a cache-aside read: a hit is returned without touching the store,
// a miss falls through to the store and warms the cache. There is no
// negative caching; repeated misses re-query the store every time.
func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", errs.ErrValidation)
	}

	key := cacheKeyPrefix + userID
	if p, ok := s.cache.Get(ctx, key); ok {
		return p, nil
	}

	p, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, p)
	return p, nil
}

// HandleUserEvent is the stream subscriber handler. It applies profile
// events from other services idempotently: replaying the same event, or an
// older one, leaves the store untouched. The local cache entry is refreshed
// as part of every applied event so this instance converges without waiting
// for its own read path.
func (s *Service) HandleUserEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.ProfileUpserted {
		return nil
	}

	dataBytes, _ := json.Marshal(event.Data)
	var data events.ProfileUpsertedEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("failed to unmarshal profile.upserted event: %w", err)
	}
	if data.UserID == "" {
		return fmt.Errorf("profile.upserted event without user_id: %w", errs.ErrValidation)
	}

	req := UpsertRequest{
		UserID:      data.UserID,
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		Email:       data.Email,
		PhoneNumber: data.PhoneNumber,
		AvatarRef:   data.AvatarRef,
	}

	existing, err := s.store.GetByUserID(ctx, data.UserID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		p := &models.Profile{UserID: data.UserID, Version: event.Version, UpdatedAt: time.Now().UTC()}
		mergeFields(p, req)
		if err := s.store.Create(ctx, p); err != nil {
			return err
		}
		s.cache.Set(ctx, cacheKeyPrefix+p.UserID, p)
	case err != nil:
		return err
	case existing.Version >= event.Version:
		// Duplicate or out-of-order delivery; the stored state is newer.
		log.Printf("Skipping stale profile event for %s (event version %d, stored %d)",
			data.UserID, event.Version, existing.Version)
		return nil
	default:
		mergeFields(existing, req)
		existing.Version = event.Version
		existing.UpdatedAt = time.Now().UTC()
		if err := s.store.Update(ctx, existing); err != nil {
			return err
		}
		s.cache.Set(ctx, cacheKeyPrefix+existing.UserID, existing)
	}
	return nil
}

// mergeFields applies the non-empty request fields onto p. A field the
// caller left blank keeps its stored value.
func mergeFields(p *models.Profile, req UpsertRequest) {
	if req.FirstName != "" {
		p.FirstName = req.FirstName
	}
	if req.LastName != "" {
		p.LastName = req.LastName
	}
	if req.Email != "" {
		p.Email = req.Email
	}
	if req.PhoneNumber != "" {
		p.PhoneNumber = req.PhoneNumber
	}
	if req.AvatarRef != "" {
		p.AvatarRef = req.AvatarRef
	}
}
