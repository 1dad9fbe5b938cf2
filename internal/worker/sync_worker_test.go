package worker

import (
	"context"
	"errors"
	"testing"

	"nordenzelt/internal/amqp"
	"nordenzelt/internal/core"
	"nordenzelt/internal/store"
)

type fakeStorage struct {
	events  map[string]core.Event
	gcalIDs map[string]string
	synced  map[string]string
	errs    map[string]string
	pending []core.Event
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		events:  map[string]core.Event{},
		gcalIDs: map[string]string{},
		synced:  map[string]string{},
		errs:    map[string]string{},
	}
}

func (s *fakeStorage) GetEvent(_ context.Context, id string) (core.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return core.Event{}, store.ErrNotFound
	}
	return ev, nil
}

func (s *fakeStorage) ListPendingSync(context.Context) ([]core.Event, error) {
	return s.pending, nil
}

func (s *fakeStorage) GCalEventID(_ context.Context, id string) (string, error) {
	return s.gcalIDs[id], nil
}

func (s *fakeStorage) MarkSynced(_ context.Context, id, gcalID string) error {
	s.synced[id] = gcalID
	return nil
}

func (s *fakeStorage) MarkSyncError(_ context.Context, id, msg string) error {
	s.errs[id] = msg
	return nil
}

type fakeCalendar struct {
	upserts  []string
	deletes  []string
	failNext bool
}

func (c *fakeCalendar) UpsertEvent(_ context.Context, ev core.Event, gcalEventID string) (string, error) {
	if c.failNext {
		return "", errors.New("calendar unavailable")
	}
	c.upserts = append(c.upserts, ev.ID)
	if gcalEventID != "" {
		return gcalEventID, nil
	}
	return "gcal-" + ev.ID, nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, gcalEventID string) error {
	if c.failNext {
		return errors.New("calendar unavailable")
	}
	c.deletes = append(c.deletes, gcalEventID)
	return nil
}

func TestHandleSyncMessageCreatesMirror(t *testing.T) {
	st := newFakeStorage()
	st.events["ev-1"] = core.Event{ID: "ev-1", Date: core.NewDate(2025, 6, 1)}
	cal := &fakeCalendar{}
	w := NewSyncWorker(st, cal)

	if err := w.HandleSyncMessage(context.Background(), &amqp.EventSyncMessage{ID: "ev-1", Version: 1}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if st.synced["ev-1"] != "gcal-ev-1" {
		t.Fatalf("not marked synced: %+v", st.synced)
	}
}

func TestHandleSyncMessageReusesCalendarID(t *testing.T) {
	st := newFakeStorage()
	st.events["ev-1"] = core.Event{ID: "ev-1", Date: core.NewDate(2025, 6, 1)}
	st.gcalIDs["ev-1"] = "gcal-existing"
	cal := &fakeCalendar{}
	w := NewSyncWorker(st, cal)

	if err := w.HandleSyncMessage(context.Background(), &amqp.EventSyncMessage{ID: "ev-1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if st.synced["ev-1"] != "gcal-existing" {
		t.Fatalf("existing calendar id not kept: %+v", st.synced)
	}
}

func TestHandleSyncMessageMissingEvent(t *testing.T) {
	w := NewSyncWorker(newFakeStorage(), &fakeCalendar{})
	// A deleted event is not an error; the delete message cleans up.
	if err := w.HandleSyncMessage(context.Background(), &amqp.EventSyncMessage{ID: "gone"}); err != nil {
		t.Fatalf("expected nil for missing event, got %v", err)
	}
}

func TestHandleSyncMessageRecordsFailure(t *testing.T) {
	st := newFakeStorage()
	st.events["ev-1"] = core.Event{ID: "ev-1", Date: core.NewDate(2025, 6, 1)}
	cal := &fakeCalendar{failNext: true}
	w := NewSyncWorker(st, cal)

	if err := w.HandleSyncMessage(context.Background(), &amqp.EventSyncMessage{ID: "ev-1"}); err == nil {
		t.Fatal("expected error")
	}
	if st.errs["ev-1"] == "" {
		t.Fatal("sync error not recorded")
	}
	if _, ok := st.synced["ev-1"]; ok {
		t.Fatal("failed sync must not be marked synced")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	cal := &fakeCalendar{}
	w := NewSyncWorker(newFakeStorage(), cal)

	if err := w.HandleDeleteMessage(context.Background(), &amqp.EventDeleteMessage{ID: "ev-1", GCalEventID: "gcal-1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(cal.deletes) != 1 || cal.deletes[0] != "gcal-1" {
		t.Fatalf("calendar delete not issued: %+v", cal.deletes)
	}

	// No calendar id means nothing to clean up.
	if err := w.HandleDeleteMessage(context.Background(), &amqp.EventDeleteMessage{ID: "ev-2"}); err != nil {
		t.Fatalf("handle without gcal id: %v", err)
	}
	if len(cal.deletes) != 1 {
		t.Fatal("unexpected extra delete")
	}
}

func TestProcessPending(t *testing.T) {
	st := newFakeStorage()
	st.events["ev-1"] = core.Event{ID: "ev-1", Date: core.NewDate(2025, 6, 1)}
	st.events["ev-2"] = core.Event{ID: "ev-2", Date: core.NewDate(2025, 6, 2)}
	st.pending = []core.Event{st.events["ev-1"], st.events["ev-2"]}
	cal := &fakeCalendar{}
	w := NewSyncWorker(st, cal)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(cal.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(cal.upserts))
	}
}
