package core

import (
	"math"
	"time"
)

// ExpensesTotal sums the stored expense totals. Totals are taken as
// persisted, not recomputed from quantity × unit price: a row saved with a
// mismatched total skews the figures until it is re-saved through the form.
func (ev Event) ExpensesTotal() Money {
	var sum int64
	for _, exp := range ev.Expenses {
		sum += exp.Total.Cents
	}
	return Money{Cents: sum}
}

// Profit returns agreed price minus the expense totals. A missing price
// counts as 0 and a nil expense list as empty.
func (ev Event) Profit() Money {
	return Money{Cents: ev.AgreedPrice.Cents - ev.ExpensesTotal().Cents}
}

// TotalCashFlow sums every event's profit.
func TotalCashFlow(events []Event) Money {
	var sum int64
	for _, ev := range events {
		sum += ev.Profit().Cents
	}
	return Money{Cents: sum}
}

// TotalIncome sums the agreed prices.
func TotalIncome(events []Event) Money {
	var sum int64
	for _, ev := range events {
		sum += ev.AgreedPrice.Cents
	}
	return Money{Cents: sum}
}

// TotalExpenses sums the expense totals across all events.
func TotalExpenses(events []Event) Money {
	var sum int64
	for _, ev := range events {
		sum += ev.ExpensesTotal().Cents
	}
	return Money{Cents: sum}
}

// AverageProfitability returns total profit over total income as a rounded
// percentage. An event without a price contributes one whole currency unit
// to the denominator so the division stays defined; no events means 0.
func AverageProfitability(events []Event) int {
	if len(events) == 0 {
		return 0
	}
	var income int64
	for _, ev := range events {
		if ev.AgreedPrice.Cents > 0 {
			income += ev.AgreedPrice.Cents
		} else {
			income += 100
		}
	}
	if income == 0 {
		return 0
	}
	profit := float64(TotalCashFlow(events).Cents)
	return int(math.Round(profit / float64(income) * 100))
}

// UpcomingReminders returns the events dated exactly today+14 days,
// matched on the YYYY-MM-DD string. An event 13 or 15 days out is
// excluded; the single-day policy is deliberate.
func UpcomingReminders(events []Event, today time.Time) []Event {
	target := today.AddDate(0, 0, 14).Format("2006-01-02")
	var due []Event
	for _, ev := range events {
		if ev.Date.String() == target {
			due = append(due, ev)
		}
	}
	return due
}

// EventsOn returns the events whose date equals the given day.
func EventsOn(events []Event, date Date) []Event {
	var out []Event
	want := date.String()
	for _, ev := range events {
		if ev.Date.String() == want {
			out = append(out, ev)
		}
	}
	return out
}
