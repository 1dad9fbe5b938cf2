package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"nordenzelt/internal/core"
	"nordenzelt/internal/notify"
)

type indexPage struct {
	Hero     []core.SiteAsset
	Carousel []core.SiteAsset
	Content  map[string]string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if page, ok := s.pageCache.Get("index"); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
		return
	}

	var (
		hero     []core.SiteAsset
		carousel []core.SiteAsset
		content  []core.SiteContent
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		hero, err = s.store.ListAssets(ctx, core.SectionHero)
		return err
	})
	g.Go(func() (err error) {
		carousel, err = s.store.ListAssets(ctx, core.SectionCarousel)
		return err
	})
	g.Go(func() (err error) {
		content, err = s.store.ListContent(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Index data fetch failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	data := indexPage{
		Hero:     hero,
		Carousel: carousel,
		Content:  contentByKey(content),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index render failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	s.pageCache.Set("index", buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type galleryPage struct {
	Folders      []core.GalleryFolder
	Items        []core.GalleryItem
	ActiveFolder string
}

func (s *Server) handleGaleria(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	activeFolder := sanitizeInput(r.URL.Query().Get("carpeta"))
	cacheKey := "galeria:" + activeFolder
	if page, ok := s.pageCache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
		return
	}

	var (
		folders []core.GalleryFolder
		items   []core.GalleryItem
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		folders, err = s.store.ListFolders(ctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.store.ListGalleryItems(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Gallery data fetch failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	if activeFolder != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.FolderID == activeFolder {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	data := galleryPage{Folders: folders, Items: items, ActiveFolder: activeFolder}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "galeria.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Gallery render failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	s.pageCache.Set(cacheKey, buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleQuote turns the public quote form into a WhatsApp deep link and
// redirects the visitor into the chat.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		http.Error(w, "Formulario inválido", http.StatusBadRequest)
		return
	}

	quote := notify.QuoteRequest{
		Name:       sanitizeInput(r.Form.Get("nombre_apellido")),
		Email:      sanitizeInput(r.Form.Get("email")),
		Phone:      sanitizeInput(r.Form.Get("telefono")),
		Location:   sanitizeInput(r.Form.Get("ubicacion")),
		DateTime:   sanitizeInput(r.Form.Get("fecha_hora")),
		Duration:   sanitizeInput(r.Form.Get("duracion")),
		Guests:     sanitizeInput(r.Form.Get("invitados")),
		Ambience:   sanitizeInput(r.Form.Get("ambientacion")),
		SoundTech:  sanitizeInput(r.Form.Get("sonido_tecnica")),
		Furniture:  sanitizeInput(r.Form.Get("mobiliario")),
		DanceFloor: sanitizeInput(r.Form.Get("pista_baile")),
		Comments:   sanitizeInput(r.Form.Get("comentarios")),
	}

	link := s.links.QuoteLink(quote)
	slog.InfoContext(r.Context(), "Quote request received", "location", quote.Location, "guests", quote.Guests)
	http.Redirect(w, r, link, http.StatusSeeOther)
}

func contentByKey(content []core.SiteContent) map[string]string {
	m := make(map[string]string, len(content))
	for _, c := range content {
		m[c.Section+"."+c.Key] = c.Value
	}
	return m
}
