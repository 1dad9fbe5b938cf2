package core

import (
	"strconv"
	"strings"
)

// DraftEvent is the form-side representation of an event. All fields are
// strings exactly as submitted; ToEvent is the single conversion point into
// a fully typed Event, so a partially typed draft never reaches storage.
type DraftEvent struct {
	ID          string
	Date        string
	Address     string
	EventTime   string
	ManagerName string
	VenueName   string
	Reminder    string
	AgreedPrice string
	Expenses    []DraftExpense
}

// DraftExpense mirrors one expense row of the event form.
type DraftExpense struct {
	ID        string
	Type      string
	Quantity  string
	UnitPrice string
}

// ToEvent validates and converts the draft. A missing agreed price is
// treated as 0; expense totals are recomputed from quantity × unit price.
func (d DraftEvent) ToEvent() (Event, error) {
	date, err := ParseDate(d.Date)
	if err != nil {
		return Event{}, err
	}

	price, err := ParseAmountToCents(d.AgreedPrice)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		ID:          strings.TrimSpace(d.ID),
		Date:        date,
		Address:     strings.TrimSpace(d.Address),
		EventTime:   strings.TrimSpace(d.EventTime),
		ManagerName: strings.TrimSpace(d.ManagerName),
		VenueName:   strings.TrimSpace(d.VenueName),
		Reminder:    strings.TrimSpace(d.Reminder),
		AgreedPrice: Money{Cents: price},
	}

	for _, de := range d.Expenses {
		exp, err := de.toExpense()
		if err != nil {
			return Event{}, err
		}
		ev.Expenses = append(ev.Expenses, exp)
	}

	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (d DraftExpense) toExpense() (Expense, error) {
	qty := int64(0)
	if v := strings.TrimSpace(d.Quantity); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Expense{}, ErrInvalidQuantity
		}
		qty = n
	}

	unit, err := ParseAmountToCents(d.UnitPrice)
	if err != nil {
		return Expense{}, err
	}

	exp := Expense{
		ID:        strings.TrimSpace(d.ID),
		Type:      strings.TrimSpace(d.Type),
		Quantity:  qty,
		UnitPrice: Money{Cents: unit},
	}
	exp.Recalculate()

	if err := exp.Validate(); err != nil {
		return Expense{}, err
	}
	return exp, nil
}
