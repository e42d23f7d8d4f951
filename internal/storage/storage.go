// Package storage defines the persistence contracts for events and user
// profiles. Implementations live in the sqlite and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"timekeeper/internal/models"
)

// ErrDuplicate is returned when a write collides with an existing key.
var ErrDuplicate = errors.New("storage: duplicate key")

// EventRepository persists events. Time filters take milliseconds since the
// epoch so callers own the clock.
type EventRepository interface {
	// InsertEvent stores ev as given. It performs no business validation.
	InsertEvent(ctx context.Context, ev models.Event) error
	// GetEvent returns nil when no event has that id.
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	// ListUserEventsAfter returns userID's events with end_time > afterMs.
	ListUserEventsAfter(ctx context.Context, userID string, afterMs int64) ([]models.Event, error)
	// ListEventsEndingBy returns all events with end_time <= byMs.
	ListEventsEndingBy(ctx context.Context, byMs int64) ([]models.Event, error)
	CountUserEventsAfter(ctx context.Context, userID string, afterMs int64) (int, error)
	CountEvents(ctx context.Context) (int, error)
}

// UserRepository persists user profiles and their presets.
type UserRepository interface {
	// GetUser returns nil when the user does not exist.
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// InsertPreset appends preset, creating the user row if needed. A tag
	// already present for the user yields ErrDuplicate.
	InsertPreset(ctx context.Context, userID string, preset models.Preset) error
	DeletePreset(ctx context.Context, userID, tag string) (bool, error)
	// SetTimezone upserts the user's timezone.
	SetTimezone(ctx context.Context, userID, timezone string) error
	// SetPremium upserts the user's premium status.
	SetPremium(ctx context.Context, userID string, premium models.PremiumStatus) error
	// RestoreUser inserts a full user with presets; false when the id exists.
	RestoreUser(ctx context.Context, user models.User) (bool, error)
}

// Store is a full backend. Close releases the underlying connections.
type Store interface {
	EventRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
