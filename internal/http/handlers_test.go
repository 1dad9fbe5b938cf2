package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"nordenzelt/internal/core"
	"nordenzelt/internal/notify"
	"nordenzelt/internal/services"
	"nordenzelt/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	st := memory.New()
	st.SeedContent([]core.SiteContent{
		{ID: "content-hero-title", Section: "hero", Key: "title", Label: "Título principal", Value: "Norden Zelt"},
		{ID: "content-hero-subtitle", Section: "hero", Key: "subtitle", Label: "Subtítulo", Value: "Alquiler de carpas para eventos"},
		{ID: "content-about-text", Section: "about", Key: "text", Label: "Texto de presentación", Value: "Carpas de alta calidad."},
		{ID: "content-contact-phone", Section: "contact", Key: "phone", Label: "Teléfono de contacto", Value: "5491132747900"},
		{ID: "content-footer-text", Section: "footer", Key: "text", Label: "Pie de página", Value: "Norden Zelt · Buenos Aires"},
	})

	links := notify.NewLinkBuilder("5491132747900")
	events := services.NewEventService(st, nil, nil)
	reminders := services.NewReminderService(st, links, nil)

	srv := NewServer(Options{
		Addr:          ":0",
		Store:         st,
		Events:        events,
		Reminders:     reminders,
		Links:         links,
		AdminPassword: "test-secret",
		SessionTTL:    time.Hour,
		CacheTTL:      time.Minute,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

// login posts the admin password and returns the session cookie.
func login(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("password=test-secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login status=%d", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestPublicPagesAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Norden Zelt") {
		t.Fatalf("index body missing brand")
	}

	for _, path := range []string{"/healthz", "/readyz", "/galeria"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestQuoteRedirectsToWhatsApp(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"nombre_apellido": {"Ana García"},
		"telefono":        {"1122334455"},
		"ubicacion":       {"Pilar"},
		"fecha_hora":      {"2026-10-10 20:00"},
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/presupuesto", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://wa.me/5491132747900?text=") {
		t.Fatalf("unexpected redirect target: %s", loc)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("password=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Contraseña incorrecta") {
		t.Fatalf("expected error fragment, got: %s", rr.Body.String())
	}
}

func TestLoginIssuesHXRedirect(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("password=test-secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") != "/admin" {
		t.Fatalf("expected HX-Redirect to /admin")
	}
}

func TestAdminRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/admin/login" {
		t.Fatalf("expected redirect to login, got %s", loc)
	}

	// htmx fragments get 401 with a client-side redirect instead.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/calendar", nil)
	req.Header.Set("HX-Request", "true")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") != "/admin/login" {
		t.Fatalf("expected HX-Redirect to login")
	}
}

func TestSaveEventValidationAndSuccess(t *testing.T) {
	srv, st := newTestServer(t)
	cookie := login(t, srv)

	// Invalid date
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/events", strings.NewReader("date=not-a-date&venue_name=Quinta"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success with expense rows
	form := url.Values{
		"date":               {"2026-11-21"},
		"venue_name":         {"Quinta Los Robles"},
		"manager_name":       {"Carlos"},
		"agreed_price":       {"50000"},
		"expense_type":       {"Flete", "Personal"},
		"expense_quantity":   {"1", "3"},
		"expense_unit_price": {"8000", "5000"},
	}
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/events", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Evento guardado") {
		t.Fatalf("expected success fragment, got: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "event:saved") {
		t.Fatalf("expected HX-Trigger event:saved")
	}

	events, err := st.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || len(events[0].Expenses) != 2 {
		t.Fatalf("expected 1 event with 2 expenses, got %+v", events)
	}
}

func TestDeleteEvent(t *testing.T) {
	srv, st := newTestServer(t)
	cookie := login(t, srv)

	saved, err := st.SaveEvent(context.Background(), core.Event{Date: core.NewDate(2026, 11, 21)})
	if err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/events/delete", strings.NewReader("id="+saved.ID))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if events, _ := st.ListEvents(context.Background()); len(events) != 0 {
		t.Fatalf("expected empty store, got %d events", len(events))
	}
}

func TestCalendarFragment(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/calendar?year=2026&month=3", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("calendar status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Marzo 2026") {
		t.Fatalf("expected Spanish month header, got: %s", rr.Body.String())
	}
}

func TestDashboardFragment(t *testing.T) {
	srv, st := newTestServer(t)
	cookie := login(t, srv)

	_, err := st.SaveEvent(context.Background(), core.Event{
		Date:        core.NewDate(2026, 11, 21),
		AgreedPrice: core.Money{Cents: 5000000},
		Expenses:    []core.Expense{{Type: "Flete", Quantity: 1, UnitPrice: core.Money{Cents: 800000}, Total: core.Money{Cents: 800000}}},
	})
	if err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "$50.000") {
		t.Fatalf("expected formatted income, got: %s", rr.Body.String())
	}
}

func TestContentUpdateInvalidatesIndexCache(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	// Prime the cache.
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/content", strings.NewReader("id=content-hero-subtitle&value=Carpas premium"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("content update status=%d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rr.Body.String(), "Carpas premium") {
		t.Fatalf("expected fresh content after update")
	}
}

func TestUploadWithoutStorageConfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/assets", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no está configurado") {
		t.Fatalf("expected storage error fragment, got: %s", rr.Body.String())
	}
}

func TestEventsICSExport(t *testing.T) {
	srv, st := newTestServer(t)
	cookie := login(t, srv)

	_, err := st.SaveEvent(context.Background(), core.Event{
		Date:      core.NewDate(2026, 11, 21),
		VenueName: "Quinta Los Robles",
		Address:   "Pilar",
	})
	if err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/events.ics", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("ics status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "Quinta Los Robles") {
		t.Fatalf("unexpected ics body: %s", body)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}

func TestFoldersCreateAndDelete(t *testing.T) {
	srv, st := newTestServer(t)
	cookie := login(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/folders", strings.NewReader("name=Bodas&description=Eventos de boda"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("folder create status=%d: %s", rr.Code, rr.Body.String())
	}

	folders, err := st.ListFolders(context.Background())
	if err != nil || len(folders) != 1 {
		t.Fatalf("expected 1 folder, got %v (%v)", folders, err)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/folders/delete", strings.NewReader("id="+folders[0].ID))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("folder delete status=%d", rr.Code)
	}

	// Missing name is rejected.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/folders", strings.NewReader("name="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty name, got %d", rr.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("logout status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", rr.Code)
	}
}
