package amqp

import (
	"encoding/json"
	"time"
)

// Message type tags carried in the AMQP delivery so the consumer can
// route without inspecting the body.
const (
	TypeEventSync   = "event.sync"
	TypeEventDelete = "event.delete"
)

// EventSyncMessage asks the worker to mirror an event to the external
// calendar. It carries only the ID; the worker fetches the full event
// from the database.
type EventSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// EventDeleteMessage asks the worker to remove a mirrored calendar
// entry. The database row is already gone, so the calendar id travels
// in the message.
type EventDeleteMessage struct {
	ID          string    `json:"id"`
	GCalEventID string    `json:"gcal_event_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewEventSyncMessage(id string, version int64) *EventSyncMessage {
	return &EventSyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func NewEventDeleteMessage(id, gcalEventID string) *EventDeleteMessage {
	return &EventDeleteMessage{ID: id, GCalEventID: gcalEventID, Timestamp: time.Now()}
}

func (m *EventSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *EventDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventSyncMessageFromJSON(data []byte) (*EventSyncMessage, error) {
	var msg EventSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func EventDeleteMessageFromJSON(data []byte) (*EventDeleteMessage, error) {
	var msg EventDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
