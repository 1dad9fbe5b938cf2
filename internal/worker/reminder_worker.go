package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"nordenzelt/internal/services"
)

// ReminderWorker logs the day's due reminders with their WhatsApp links
// so they show up in the worker's output even when nobody opens the
// dashboard.
type ReminderWorker struct {
	reminders *services.ReminderService
	schedule  string
	cron      *cron.Cron
}

// NewReminderWorker schedules the scan with a cron expression, e.g.
// "0 9 * * *" for every day at 09:00.
func NewReminderWorker(reminders *services.ReminderService, schedule string) *ReminderWorker {
	return &ReminderWorker{reminders: reminders, schedule: schedule}
}

// Start registers the cron entry and runs one scan immediately so a
// restart never skips the day's reminders.
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, func() {
		if err := w.Scan(ctx, time.Now()); err != nil {
			slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder scan %q: %w", w.schedule, err)
	}

	if err := w.Scan(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial reminder scan failed", "error", err)
	}

	w.cron.Start()
	slog.InfoContext(ctx, "Reminder worker started", "schedule", w.schedule)

	<-ctx.Done()
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

// Scan logs every reminder due at now.
func (w *ReminderWorker) Scan(ctx context.Context, now time.Time) error {
	due, err := w.reminders.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("collect reminders: %w", err)
	}

	if len(due) == 0 {
		slog.InfoContext(ctx, "No reminders due", "date", now.Format("2006-01-02"))
		return nil
	}

	for _, r := range due {
		slog.InfoContext(ctx, "Reminder due",
			"event_id", r.Event.ID,
			"date", r.Event.Date.String(),
			"venue", r.Event.VenueName,
			"manager", r.Event.ManagerName,
			"whatsapp_link", r.Link)
	}
	return nil
}
