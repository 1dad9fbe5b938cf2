package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"nordenzelt/internal/core"
)

// handleLogin renders the login form and checks the submitted password.
// The dashboard has a single shared password; a correct submission
// issues a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.sessions.sessionFromRequest(r); ok {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		s.renderPage(w, r, "login.html", nil)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
			return
		}

		password := r.Form.Get("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
			slog.WarnContext(r.Context(), "Failed admin login", "client_ip", extractClientIP(r))
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`<div class="error">Contraseña incorrecta</div>`))
			return
		}

		session := s.sessions.Create()
		setSessionCookie(w, session)
		slog.InfoContext(r.Context(), "Admin logged in", "expires_at", session.ExpiresAt)

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/admin")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// handleAdmin renders the dashboard shell; the calendar, metrics, and
// reminders load as fragments. The header shows the running cash flow.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.URL.Path != "/admin" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var cashFlow core.Money
	if events, err := s.events.List(r.Context()); err == nil {
		cashFlow = core.TotalCashFlow(events)
	} else {
		slog.ErrorContext(r.Context(), "List events failed", "error", err)
	}

	s.renderPage(w, r, "admin.html", struct{ CashFlow core.Money }{CashFlow: cashFlow})
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template render failed", "template", name, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
	}
}
