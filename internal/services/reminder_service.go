package services

import (
	"context"
	"fmt"
	"time"

	"nordenzelt/internal/core"
	"nordenzelt/internal/notify"
	"nordenzelt/internal/store"
)

// DuenessPolicy decides which events are due for a reminder on a given
// day. The default policy matches events exactly LeadDays ahead, so a
// reminder that is not acted on the day it appears is not shown again.
type DuenessPolicy interface {
	DueEvents(events []core.Event, now time.Time) []core.Event
}

// ExactLeadPolicy flags events whose date is exactly LeadDays from now.
type ExactLeadPolicy struct {
	LeadDays int
}

func (p ExactLeadPolicy) DueEvents(events []core.Event, now time.Time) []core.Event {
	target := now.AddDate(0, 0, p.LeadDays).Format("2006-01-02")
	var due []core.Event
	for _, ev := range events {
		if ev.Date.String() == target {
			due = append(due, ev)
		}
	}
	return due
}

// Reminder pairs a due event with its prefilled WhatsApp link.
type Reminder struct {
	Event core.Event
	Link  string
}

// ReminderService computes the day's due reminders.
type ReminderService struct {
	store  store.EventStore
	links  *notify.LinkBuilder
	policy DuenessPolicy
}

func NewReminderService(st store.EventStore, links *notify.LinkBuilder, policy DuenessPolicy) *ReminderService {
	if policy == nil {
		policy = ExactLeadPolicy{LeadDays: 14}
	}
	return &ReminderService{store: st, links: links, policy: policy}
}

// Due returns the reminders for now, each with its wa.me link.
func (s *ReminderService) Due(ctx context.Context, now time.Time) ([]Reminder, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	due := s.policy.DueEvents(events, now)
	reminders := make([]Reminder, 0, len(due))
	for _, ev := range due {
		reminders = append(reminders, Reminder{Event: ev, Link: s.links.ReminderLink(ev)})
	}
	return reminders, nil
}
