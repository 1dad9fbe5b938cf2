package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"nordenzelt/internal/core"
	"nordenzelt/internal/store"
)

// Uploads go straight to the bucket; 50MB covers the short venue clips
// the gallery holds.
const maxUploadBytes = 50 << 20

type multimediaView struct {
	Hero     []core.SiteAsset
	Carousel []core.SiteAsset
	Items    []core.GalleryItem
	Folders  []core.GalleryFolder
	Storage  bool
}

func (s *Server) handleMultimedia(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var view multimediaView
	view.Storage = s.media != nil

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		view.Hero, err = s.store.ListAssets(ctx, core.SectionHero)
		return err
	})
	g.Go(func() (err error) {
		view.Carousel, err = s.store.ListAssets(ctx, core.SectionCarousel)
		return err
	})
	g.Go(func() (err error) {
		view.Items, err = s.store.ListGalleryItems(ctx)
		return err
	})
	g.Go(func() (err error) {
		view.Folders, err = s.store.ListFolders(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Multimedia data fetch failed", "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, r, "multimedia.html", view)
}

// storageReady answers the upload endpoints when no bucket is wired.
func (s *Server) storageReady(w http.ResponseWriter) bool {
	if s.media != nil {
		return true
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`<div class="error">El almacenamiento de archivos no está configurado</div>`))
	return false
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.storageReady(w) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Archivo demasiado grande o formulario inválido</div>`))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Falta el archivo</div>`))
		return
	}
	defer file.Close()

	section := sanitizeInput(r.Form.Get("section"))
	displayOrder, _ := strconv.Atoi(r.Form.Get("display_order"))

	asset, err := s.media.UploadAsset(r.Context(), section, header.Filename, header.Header.Get("Content-Type"), file, displayOrder)
	if err != nil {
		slog.ErrorContext(r.Context(), "Asset upload failed", "error", err, "section", section)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al subir el archivo</div>`))
		return
	}

	s.invalidatePublicPages()
	slog.InfoContext(r.Context(), "Asset uploaded", "id", asset.ID, "section", asset.Section)
	w.Header().Set("HX-Trigger", `{"asset:uploaded": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Archivo subido</div>`))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.storageReady(w) {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.media.DeleteAsset(r.Context(), id); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		slog.ErrorContext(r.Context(), "Asset delete failed", "error", err, "id", id)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<div class="error">Error al eliminar el archivo</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", `{"asset:deleted": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Archivo eliminado</div>`))
}

func (s *Server) handleUploadGalleryItem(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.storageReady(w) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Archivo demasiado grande o formulario inválido</div>`))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Falta el archivo</div>`))
		return
	}
	defer file.Close()

	title := sanitizeInput(r.Form.Get("title"))
	description := sanitizeInput(r.Form.Get("description"))
	folderID := sanitizeInput(r.Form.Get("folder_id"))

	item, err := s.media.UploadGalleryItem(r.Context(), header.Filename, header.Header.Get("Content-Type"), title, description, folderID, file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Gallery upload failed", "error", err, "title", title)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al subir el contenido</div>`))
		return
	}

	s.invalidatePublicPages()
	slog.InfoContext(r.Context(), "Gallery item uploaded", "id", item.ID, "type", string(item.Type))
	w.Header().Set("HX-Trigger", `{"gallery:uploaded": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Contenido subido</div>`))
}

// handleUpdateGalleryItem edits metadata only; the stored object and its
// URL never change here.
func (s *Server) handleUpdateGalleryItem(w http.ResponseWriter, r *http.Request, _ Session) {
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
	item, err := s.store.GetGalleryItem(r.Context(), id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Contenido no encontrado</div>`))
		return
	}

	item.Title = sanitizeInput(r.Form.Get("title"))
	item.Description = sanitizeInput(r.Form.Get("description"))
	item.FolderID = sanitizeInput(r.Form.Get("folder_id"))
	if v := r.Form.Get("display_order"); v != "" {
		if order, err := strconv.Atoi(v); err == nil {
			item.DisplayOrder = order
		}
	}

	if err := s.store.UpdateGalleryItem(r.Context(), item); err != nil {
		slog.ErrorContext(r.Context(), "Gallery update failed", "error", err, "id", id)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al actualizar el contenido</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", `{"gallery:updated": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Contenido actualizado</div>`))
}

func (s *Server) handleDeleteGalleryItem(w http.ResponseWriter, r *http.Request, _ Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.storageReady(w) {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.media.DeleteGalleryItem(r.Context(), id); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		slog.ErrorContext(r.Context(), "Gallery delete failed", "error", err, "id", id)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<div class="error">Error al eliminar el contenido</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", `{"gallery:deleted": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Contenido eliminado</div>`))
}

// handleFolders lists folders on GET and creates one on POST.
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request, _ Session) {
	switch r.Method {
	case http.MethodGet:
		folders, err := s.store.ListFolders(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List folders failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<div class="error">Error al cargar las carpetas</div>`))
			return
		}
		s.renderPage(w, r, "folders.html", folders)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<div class="error">Formulario inválido</div>`))
			return
		}

		folder := core.GalleryFolder{
			Name:        sanitizeInput(r.Form.Get("name")),
			Description: sanitizeInput(r.Form.Get("description")),
		}
		if err := folder.Validate(); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">El nombre de la carpeta es obligatorio</div>`))
			return
		}

		created, err := s.store.AddFolder(r.Context(), folder)
		if err != nil {
			slog.ErrorContext(r.Context(), "Folder create failed", "error", err, "name", folder.Name)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Error al crear la carpeta</div>`))
			return
		}

		s.invalidatePublicPages()
		slog.InfoContext(r.Context(), "Folder created", "id", created.ID, "name", created.Name)
		w.Header().Set("HX-Trigger", `{"folder:created": {}}`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="success">Carpeta creada</div>`))

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDeleteFolder removes the folder; its items stay and fall back to
// the unassigned group.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request, _ Session) {
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
	if err := s.store.DeleteFolder(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Folder delete failed", "error", err, "id", id)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Error al eliminar la carpeta</div>`))
		return
	}

	s.invalidatePublicPages()
	w.Header().Set("HX-Trigger", `{"folder:deleted": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Carpeta eliminada</div>`))
}
