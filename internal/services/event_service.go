// Package services provides business logic and orchestration between
// the stores, the media bucket, and the message broker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"nordenzelt/internal/core"
	"nordenzelt/internal/storage"
	"nordenzelt/internal/store"
)

// EventPublisher queues sync work for the calendar worker.
type EventPublisher interface {
	PublishEventSync(ctx context.Context, id string, version int64) error
	PublishEventDelete(ctx context.Context, id, gcalEventID string) error
}

// SyncStateReader exposes the calendar sync bookkeeping. Only the
// sqlite backend implements it; without one, delete messages go out
// with an empty calendar id.
type SyncStateReader interface {
	GetSyncState(ctx context.Context, eventID string) (storage.SyncState, error)
}

// EventService validates drafts, persists events, and notifies the
// worker about changes.
type EventService struct {
	store     store.EventStore
	publisher EventPublisher
	states    SyncStateReader
}

func NewEventService(st store.EventStore, publisher EventPublisher, states SyncStateReader) *EventService {
	return &EventService{store: st, publisher: publisher, states: states}
}

// SaveDraft converts the submitted form into a validated event and
// persists it. The calendar mirror is queued after the save; a publish
// failure never fails the request since the event is stored locally.
func (s *EventService) SaveDraft(ctx context.Context, draft core.DraftEvent) (core.Event, error) {
	ev, err := draft.ToEvent()
	if err != nil {
		return core.Event{}, err
	}

	saved, err := s.store.SaveEvent(ctx, ev)
	if err != nil {
		return core.Event{}, fmt.Errorf("save event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEventSync(ctx, saved.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
		}
	}

	return saved, nil
}

// Delete removes the event and queues removal of its calendar mirror.
func (s *EventService) Delete(ctx context.Context, id string) error {
	gcalEventID := ""
	if s.states != nil {
		if st, err := s.states.GetSyncState(ctx, id); err == nil {
			gcalEventID = st.GCalEventID
		}
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEventDelete(ctx, id, gcalEventID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}

	return nil
}

func (s *EventService) List(ctx context.Context) ([]core.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *EventService) Get(ctx context.Context, id string) (core.Event, error) {
	return s.store.GetEvent(ctx, id)
}
