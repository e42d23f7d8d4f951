package services

import (
	"context"
	"fmt"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
)

type EventServiceInterface interface {
	// ListEvents returns every event when userID is empty, otherwise the
	// user's events that have not yet ended.
	ListEvents(ctx context.Context, userID string) ([]models.Event, error)
	ListExpiredEvents(ctx context.Context) ([]models.Event, error)
	// GetEvent ignores expiry and returns nil when the id is unknown.
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
	InsertEvent(ctx context.Context, ev models.Event) error
	CountActiveEvents(ctx context.Context, userID string) (int, error)
}

type EventService struct {
	repo  storage.EventRepository
	clock Clock
}

func NewEventService(repo storage.Store, clock Clock) EventServiceInterface {
	return &EventService{repo: repo, clock: clock}
}

func (es *EventService) ListEvents(ctx context.Context, userID string) ([]models.Event, error) {
	var (
		events []models.Event
		err    error
	)
	if userID == "" {
		events, err = es.repo.ListEvents(ctx)
	} else {
		events, err = es.repo.ListUserEventsAfter(ctx, userID, es.clock().UnixMilli())
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (es *EventService) ListExpiredEvents(ctx context.Context) ([]models.Event, error) {
	events, err := es.repo.ListEventsEndingBy(ctx, es.clock().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list expired events: %w", err)
	}
	return events, nil
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, nil
	}
	ev, err := es.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, id string) (bool, error) {
	ok, err := es.repo.DeleteEvent(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete event %s: %w", id, err)
	}
	return ok, nil
}

// InsertEvent persists ev without business validation. An empty id is
// filled with a fresh one.
func (es *EventService) InsertEvent(ctx context.Context, ev models.Event) error {
	if ev.ID == "" {
		ev.ID = NewEventID()
	}
	if err := es.repo.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}

func (es *EventService) CountActiveEvents(ctx context.Context, userID string) (int, error) {
	n, err := es.repo.CountUserEventsAfter(ctx, userID, es.clock().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
