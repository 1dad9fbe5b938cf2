// Package http serves the public marketing site and the admin
// dashboard. Admin views are rendered as full pages plus htmx
// fragments for in-place swaps.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nordenzelt/internal/cache"
	"nordenzelt/internal/core"
	"nordenzelt/internal/notify"
	"nordenzelt/internal/services"
	"nordenzelt/internal/store"
	appweb "nordenzelt/web"
)

type Server struct {
	http.Server
	templates *template.Template

	store     store.Store
	events    *services.EventService
	media     *services.MediaService
	reminders *services.ReminderService
	links     *notify.LinkBuilder

	adminPassword string
	sessions      *sessionStore
	rateLimiter   *rateLimiter

	// Rendered public pages, invalidated wholesale on admin mutations.
	pageCache    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Options carries the server's dependencies. Media may be nil when
// object storage is not configured; the upload endpoints then answer
// with an explanatory error fragment.
type Options struct {
	Addr          string
	Store         store.Store
	Events        *services.EventService
	Media         *services.MediaService
	Reminders     *services.ReminderService
	Links         *notify.LinkBuilder
	AdminPassword string
	SessionTTL    time.Duration
	CacheTTL      time.Duration
}

func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		store:         opts.Store,
		events:        opts.Events,
		media:         opts.Media,
		reminders:     opts.Reminders,
		links:         opts.Links,
		adminPassword: opts.AdminPassword,
		sessions:      newSessionStore(opts.SessionTTL),
		rateLimiter:   newRateLimiter(),
		pageCache:     cache.NewLRUCache[[]byte](50, opts.CacheTTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.pageCache)
	s.cacheManager.StartCleanup(time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	// Public site
	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/presupuesto", s.withSecurityHeaders(s.handleQuote))
	mux.HandleFunc("/galeria", s.withSecurityHeaders(s.handleGaleria))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Admin access
	mux.HandleFunc("/admin/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/admin/logout", s.withSecurityHeaders(s.handleLogout))

	// Admin pages and fragments
	mux.HandleFunc("/admin", s.withSecurityHeaders(s.withSession(s.handleAdmin)))
	mux.HandleFunc("/admin/calendar", s.withSecurityHeaders(s.withSession(s.handleCalendar)))
	mux.HandleFunc("/admin/events", s.withSecurityHeaders(s.withSession(s.handleSaveEvent)))
	mux.HandleFunc("/admin/events/form", s.withSecurityHeaders(s.withSession(s.handleEventForm)))
	mux.HandleFunc("/admin/events/delete", s.withSecurityHeaders(s.withSession(s.handleDeleteEvent)))
	mux.HandleFunc("/admin/dashboard", s.withSecurityHeaders(s.withSession(s.handleDashboard)))
	mux.HandleFunc("/admin/events.ics", s.withSecurityHeaders(s.withSession(s.handleEventsICS)))
	mux.HandleFunc("/admin/reminders", s.withSecurityHeaders(s.withSession(s.handleReminders)))

	// Media and content management
	mux.HandleFunc("/admin/multimedia", s.withSecurityHeaders(s.withSession(s.handleMultimedia)))
	mux.HandleFunc("/admin/assets", s.withSecurityHeaders(s.withSession(s.handleUploadAsset)))
	mux.HandleFunc("/admin/assets/delete", s.withSecurityHeaders(s.withSession(s.handleDeleteAsset)))
	mux.HandleFunc("/admin/gallery", s.withSecurityHeaders(s.withSession(s.handleUploadGalleryItem)))
	mux.HandleFunc("/admin/gallery/update", s.withSecurityHeaders(s.withSession(s.handleUpdateGalleryItem)))
	mux.HandleFunc("/admin/gallery/delete", s.withSecurityHeaders(s.withSession(s.handleDeleteGalleryItem)))
	mux.HandleFunc("/admin/folders", s.withSecurityHeaders(s.withSession(s.handleFolders)))
	mux.HandleFunc("/admin/folders/delete", s.withSecurityHeaders(s.withSession(s.handleDeleteFolder)))
	mux.HandleFunc("/admin/content", s.withSecurityHeaders(s.withSession(s.handleContent)))

	return s
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format() },
		"monthName": func(m time.Month) string {
			return monthNameES(m)
		},
	}
}

// invalidatePublicPages drops the rendered public pages after an admin
// mutation so the next visitor sees fresh content.
func (s *Server) invalidatePublicPages() {
	s.pageCache.Clear()
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.sessions.stop()
		s.cacheManager.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListContent(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
