package http

import (
	"log/slog"
	"net/http"
)

// handleContent renders the site text editor on GET and updates a single
// entry's value on POST. Sections, keys, and labels are fixed by the
// seed data; only values change.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request, _ Session) {
	switch r.Method {
	case http.MethodGet:
		content, err := s.store.ListContent(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List content failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<div class="error">Error al cargar los textos</div>`))
			return
		}
		s.renderPage(w, r, "content.html", content)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
			return
		}

		id := sanitizeInput(r.Form.Get("id"))
		value := sanitizeInput(r.Form.Get("value"))
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<div class="error">Falta el identificador del texto</div>`))
			return
		}

		if err := s.store.UpdateContent(r.Context(), id, value); err != nil {
			slog.ErrorContext(r.Context(), "Content update failed", "error", err, "id", id)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Error al guardar el texto</div>`))
			return
		}

		s.invalidatePublicPages()
		slog.InfoContext(r.Context(), "Content updated", "id", id)
		w.Header().Set("HX-Trigger", `{"content:updated": {}}`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="success">Texto guardado</div>`))

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
