package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"nordenzelt/internal/core"
	"nordenzelt/internal/services"
)

type calendarDay struct {
	Day    int
	Date   string
	Events []core.Event
}

type calendarView struct {
	Year      int
	Month     time.Month
	MonthName string
	DayNames  []string
	// Blanks pads the grid up to the first weekday of the month.
	Blanks    []struct{}
	Days      []calendarDay
	PrevYear  int
	PrevMonth time.Month
	NextYear  int
	NextMonth time.Month
	// DueReminders feeds the banner above the grid.
	DueReminders []services.Reminder
}

// handleCalendar renders the month grid fragment.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month := parseYearMonth(r)
	events, err := s.events.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List events failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error al cargar los eventos</div>`))
		return
	}

	view := buildCalendarView(year, month, events)
	if due, err := s.reminders.Due(r.Context(), time.Now()); err == nil {
		view.DueReminders = due
	} else {
		slog.ErrorContext(r.Context(), "Reminder scan failed", "error", err)
	}

	s.renderPage(w, r, "calendar.html", view)
}

func buildCalendarView(year int, month time.Month, events []core.Event) calendarView {
	daysInMonth, firstWeekday := core.MonthMetrics(year, month)
	prevYear, prevMonth := core.PrevMonth(year, month)
	nextYear, nextMonth := core.NextMonth(year, month)

	view := calendarView{
		Year:      year,
		Month:     month,
		MonthName: monthNameES(month),
		DayNames:  dayNamesES[:],
		Blanks:    make([]struct{}, firstWeekday),
		PrevYear:  prevYear,
		PrevMonth: prevMonth,
		NextYear:  nextYear,
		NextMonth: nextMonth,
	}

	for day := 1; day <= daysInMonth; day++ {
		date := core.NewDate(year, month, day)
		view.Days = append(view.Days, calendarDay{
			Day:    day,
			Date:   date.String(),
			Events: core.EventsOn(events, date),
		})
	}
	return view
}

// handleEventForm renders the event editor fragment, blank for a new
// event or prefilled when an id is given.
func (s *Server) handleEventForm(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var ev core.Event
	if id := r.URL.Query().Get("id"); id != "" {
		var err error
		ev, err = s.events.Get(r.Context(), id)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Evento no encontrado</div>`))
			return
		}
	} else if date := r.URL.Query().Get("date"); date != "" {
		if d, err := core.ParseDate(date); err == nil {
			ev.Date = d
		}
	}

	s.renderPage(w, r, "event_form.html", ev)
}

// handleSaveEvent accepts the event form. Expense rows arrive as
// parallel arrays and replace the stored set wholesale.
func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
		return
	}

	draft := core.DraftEvent{
		ID:          sanitizeInput(r.Form.Get("id")),
		Date:        sanitizeInput(r.Form.Get("date")),
		Address:     sanitizeInput(r.Form.Get("address")),
		EventTime:   sanitizeInput(r.Form.Get("event_time")),
		ManagerName: sanitizeInput(r.Form.Get("manager_name")),
		VenueName:   sanitizeInput(r.Form.Get("venue_name")),
		Reminder:    sanitizeInput(r.Form.Get("reminder")),
		AgreedPrice: sanitizeInput(r.Form.Get("agreed_price")),
	}

	types := r.Form["expense_type"]
	quantities := r.Form["expense_quantity"]
	unitPrices := r.Form["expense_unit_price"]
	for i := range types {
		exp := core.DraftExpense{Type: sanitizeInput(types[i])}
		if i < len(quantities) {
			exp.Quantity = sanitizeInput(quantities[i])
		}
		if i < len(unitPrices) {
			exp.UnitPrice = sanitizeInput(unitPrices[i])
		}
		if exp.Type == "" && exp.Quantity == "" && exp.UnitPrice == "" {
			continue
		}
		draft.Expenses = append(draft.Expenses, exp)
	}

	ev, err := s.events.SaveDraft(r.Context(), draft)
	if err != nil {
		slog.ErrorContext(r.Context(), "Save event failed", "error", err, "date", draft.Date)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al guardar el evento</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", fmt.Sprintf(`{"event:saved": {"year": %d, "month": %d}}`, ev.Date.Year(), int(ev.Date.Month())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Evento guardado</div>`))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Falta el identificador del evento</div>`))
		return
	}

	if err := s.events.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete event failed", "error", err, "id", id)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al eliminar el evento</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", `{"event:deleted": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Evento eliminado</div>`))
}

type dashboardView struct {
	EventCount    int
	TotalIncome   core.Money
	TotalExpenses core.Money
	CashFlow      core.Money
	Profitability int
	Rows          []dashboardRow
}

type dashboardRow struct {
	Event    core.Event
	Expenses core.Money
	Profit   core.Money
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	events, err := s.events.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List events failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error al cargar el resumen</div>`))
		return
	}

	view := dashboardView{
		EventCount:    len(events),
		TotalIncome:   core.TotalIncome(events),
		TotalExpenses: core.TotalExpenses(events),
		CashFlow:      core.TotalCashFlow(events),
		Profitability: core.AverageProfitability(events),
	}
	for _, ev := range events {
		view.Rows = append(view.Rows, dashboardRow{
			Event:    ev,
			Expenses: ev.ExpensesTotal(),
			Profit:   ev.Profit(),
		})
	}

	s.renderPage(w, r, "dashboard.html", view)
}

// handleEventsICS exports the whole calendar as an iCalendar feed.
func (s *Server) handleEventsICS(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	events, err := s.events.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List events failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Norden Zelt//Eventos//ES")

	now := time.Now()
	for _, ev := range events {
		entry := cal.AddEvent(ev.ID + "@nordenzelt")
		entry.SetDtStampTime(now)
		entry.SetAllDayStartAt(ev.Date.Time)
		entry.SetAllDayEndAt(ev.Date.AddDays(1).Time)

		summary := ev.VenueName
		if summary == "" {
			summary = "Evento Norden Zelt"
		}
		entry.SetSummary(summary)
		if ev.Address != "" {
			entry.SetLocation(ev.Address)
		}
		desc := fmt.Sprintf("Encargado: %s\nHora: %s\nPrecio: %s", ev.ManagerName, ev.EventTime, ev.AgreedPrice.Format())
		entry.SetDescription(desc)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="eventos-nordenzelt.ics"`)
	if err := cal.SerializeTo(w); err != nil {
		slog.ErrorContext(r.Context(), "ICS serialization failed", "error", err)
	}
}

type remindersView struct {
	Date      string
	Reminders []reminderRow
}

type reminderRow struct {
	Event core.Event
	Link  string
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	due, err := s.reminders.Due(r.Context(), now)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reminder scan failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error al cargar los recordatorios</div>`))
		return
	}

	view := remindersView{Date: now.Format("2006-01-02")}
	for _, rem := range due {
		view.Reminders = append(view.Reminders, reminderRow{Event: rem.Event, Link: rem.Link})
	}
	s.renderPage(w, r, "reminders.html", view)
}
