// Package gcal mirrors saved events into a Google Calendar so the crew
// sees bookings on their phones without opening the dashboard.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gcalendar "google.golang.org/api/calendar/v3"
	goption "google.golang.org/api/option"

	"nordenzelt/internal/core"
)

type Client struct {
	svc        *gcalendar.Service
	calendarID string
}

// NewFromEnv creates a Calendar client using environment variables and
// service account credentials.
// Required: GOOGLE_CALENDAR_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	calendarID := strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID"))
	if calendarID == "" {
		return nil, errors.New("missing GOOGLE_CALENDAR_ID")
	}

	credentialsJSON, err := loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gcalendar.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gcalendar.CalendarEventsScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	slog.InfoContext(ctx, "Google Calendar service created", "calendar_id", calendarID)

	return &Client{svc: svc, calendarID: calendarID}, nil
}

func loadCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", serviceAccountFile, "size", len(credentialsJSON))
		return credentialsJSON, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// UpsertEvent inserts or patches the all-day calendar entry for an
// event and returns its calendar id.
func (c *Client) UpsertEvent(ctx context.Context, ev core.Event, gcalEventID string) (string, error) {
	if c.svc == nil {
		return "", errors.New("calendar service not initialized")
	}

	entry := buildEntry(ev)

	if gcalEventID == "" {
		created, err := c.svc.Events.Insert(c.calendarID, entry).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("insert calendar event: %w", err)
		}
		slog.InfoContext(ctx, "Calendar event created", "event_id", ev.ID, "gcal_event_id", created.Id)
		return created.Id, nil
	}

	updated, err := c.svc.Events.Patch(c.calendarID, gcalEventID, entry).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("patch calendar event: %w", err)
	}
	slog.InfoContext(ctx, "Calendar event updated", "event_id", ev.ID, "gcal_event_id", updated.Id)
	return updated.Id, nil
}

// DeleteEvent removes a mirrored calendar entry. Deleting an entry that
// is already gone is not an error.
func (c *Client) DeleteEvent(ctx context.Context, gcalEventID string) error {
	if c.svc == nil {
		return errors.New("calendar service not initialized")
	}
	if gcalEventID == "" {
		return nil
	}

	err := c.svc.Events.Delete(c.calendarID, gcalEventID).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return nil
		}
		return fmt.Errorf("delete calendar event: %w", err)
	}

	slog.InfoContext(ctx, "Calendar event deleted", "gcal_event_id", gcalEventID)
	return nil
}

func buildEntry(ev core.Event) *gcalendar.Event {
	summary := ev.VenueName
	if summary == "" {
		summary = "Evento Norden Zelt"
	}
	if ev.ManagerName != "" {
		summary = fmt.Sprintf("%s (%s)", summary, ev.ManagerName)
	}

	var desc strings.Builder
	if ev.EventTime != "" {
		fmt.Fprintf(&desc, "Hora: %s\n", ev.EventTime)
	}
	if ev.Address != "" {
		fmt.Fprintf(&desc, "Lugar: %s\n", ev.Address)
	}
	fmt.Fprintf(&desc, "Precio: %s\n", ev.AgreedPrice.Format())
	if ev.Reminder != "" {
		fmt.Fprintf(&desc, "Recordatorio: %s\n", ev.Reminder)
	}

	return &gcalendar.Event{
		Summary:     summary,
		Location:    ev.Address,
		Description: desc.String(),
		Start:       &gcalendar.EventDateTime{Date: ev.Date.String()},
		End:         &gcalendar.EventDateTime{Date: ev.Date.AddDays(1).String()},
	}
}

func isGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "404") || strings.Contains(msg, "410")
}
