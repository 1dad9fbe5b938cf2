// Package worker runs the background side of the system: the calendar
// mirror and the reminder scan.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nordenzelt/internal/amqp"
	"nordenzelt/internal/core"
	"nordenzelt/internal/store"
)

// CalendarMirror is the external calendar surface the worker drives.
type CalendarMirror interface {
	UpsertEvent(ctx context.Context, ev core.Event, gcalEventID string) (string, error)
	DeleteEvent(ctx context.Context, gcalEventID string) error
}

// SyncStorage is the slice of the sqlite repository the worker needs.
type SyncStorage interface {
	GetEvent(ctx context.Context, id string) (core.Event, error)
	ListPendingSync(ctx context.Context) ([]core.Event, error)
	GCalEventID(ctx context.Context, eventID string) (string, error)
	MarkSynced(ctx context.Context, eventID, gcalEventID string) error
	MarkSyncError(ctx context.Context, eventID, msg string) error
}

// SyncWorker mirrors saved events into the external calendar.
type SyncWorker struct {
	storage  SyncStorage
	calendar CalendarMirror
}

func NewSyncWorker(storage SyncStorage, calendar CalendarMirror) *SyncWorker {
	return &SyncWorker{storage: storage, calendar: calendar}
}

// HandleSyncMessage processes a single event sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EventSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)
	return w.syncEvent(ctx, msg.ID)
}

// HandleDeleteMessage removes the calendar entry for a deleted event.
// The database row is gone, so the calendar id travels in the message.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.EventDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID, "gcal_event_id", msg.GCalEventID)

	if msg.GCalEventID == "" {
		slog.InfoContext(ctx, "Event had no calendar mirror, nothing to delete", "id", msg.ID)
		return nil
	}
	if err := w.calendar.DeleteEvent(ctx, msg.GCalEventID); err != nil {
		return fmt.Errorf("delete calendar mirror: %w", err)
	}
	return nil
}

// ProcessPending scans for events whose latest save never reached the
// calendar. Run on startup and periodically to catch saves made while
// the broker or the worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx)
	if err != nil {
		return fmt.Errorf("list pending sync: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending sync backlog", "count", len(pending))

	var failed int
	for _, ev := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncEvent(ctx, ev.ID); err != nil {
			failed++
			slog.ErrorContext(ctx, "Failed to sync pending event", "id", ev.ID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending events failed to sync", failed, len(pending))
	}
	return nil
}

func (w *SyncWorker) syncEvent(ctx context.Context, id string) error {
	ev, err := w.storage.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before the worker got to it; the delete message
		// handles the calendar side.
		slog.InfoContext(ctx, "Event gone before sync, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}

	gcalEventID, err := w.storage.GCalEventID(ctx, id)
	if err != nil {
		return fmt.Errorf("get calendar id: %w", err)
	}

	newID, err := w.calendar.UpsertEvent(ctx, ev, gcalEventID)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("upsert calendar mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id, newID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Event mirrored to calendar", "id", id, "gcal_event_id", newID)
	return nil
}
