// Package memory provides an in-process Store used by tests and by the
// "memory" data backend for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nordenzelt/internal/core"
	"nordenzelt/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	events   map[string]core.Event
	assets   map[string]core.SiteAsset
	content  map[string]core.SiteContent
	items    map[string]core.GalleryItem
	folders  map[string]core.GalleryFolder
	contentO []string // insertion order for stable listing
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		events:  make(map[string]core.Event),
		assets:  make(map[string]core.SiteAsset),
		content: make(map[string]core.SiteContent),
		items:   make(map[string]core.GalleryItem),
		folders: make(map[string]core.GalleryFolder),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListEvents(ctx context.Context) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, cloneEvent(ev))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return core.Event{}, store.ErrNotFound
	}
	return cloneEvent(ev), nil
}

func (s *Store) SaveEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	// Expense rows are replaced wholesale with fresh identifiers.
	for i := range ev.Expenses {
		ev.Expenses[i].ID = uuid.NewString()
	}
	s.events[ev.ID] = cloneEvent(ev)
	return ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) ListAssets(ctx context.Context, section string) ([]core.SiteAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.SiteAsset, 0, len(s.assets))
	for _, a := range s.assets {
		if section == "" || a.Section == section {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetAsset(ctx context.Context, id string) (core.SiteAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return core.SiteAsset{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) AddAsset(ctx context.Context, a core.SiteAsset) (core.SiteAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.assets[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.assets, id)
	return nil
}

func (s *Store) ListContent(ctx context.Context) ([]core.SiteContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.SiteContent, 0, len(s.contentO))
	for _, id := range s.contentO {
		out = append(out, s.content[id])
	}
	return out, nil
}

func (s *Store) UpdateContent(ctx context.Context, id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.content[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Value = value
	s.content[id] = c
	return nil
}

// SeedContent installs content entries directly; used by tests and the
// memory backend in place of the sqlite seed migration.
func (s *Store) SeedContent(entries []core.SiteContent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range entries {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.content[c.ID] = c
		s.contentO = append(s.contentO, c.ID)
	}
}

func (s *Store) ListGalleryItems(ctx context.Context) ([]core.GalleryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.GalleryItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetGalleryItem(ctx context.Context, id string) (core.GalleryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return core.GalleryItem{}, store.ErrNotFound
	}
	return it, nil
}

func (s *Store) AddGalleryItem(ctx context.Context, it core.GalleryItem) (core.GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	s.items[it.ID] = it
	return it, nil
}

func (s *Store) UpdateGalleryItem(ctx context.Context, it core.GalleryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		return store.ErrNotFound
	}
	s.items[it.ID] = it
	return nil
}

func (s *Store) DeleteGalleryItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListFolders(ctx context.Context) ([]core.GalleryFolder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.GalleryFolder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AddFolder(ctx context.Context, f core.GalleryFolder) (core.GalleryFolder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.folders[f.ID] = f
	return f, nil
}

func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.folders, id)
	// Items fall back to "no folder", mirroring the schema's SET NULL.
	for itemID, it := range s.items {
		if it.FolderID == id {
			it.FolderID = ""
			s.items[itemID] = it
		}
	}
	return nil
}

func cloneEvent(ev core.Event) core.Event {
	out := ev
	out.Expenses = make([]core.Expense, len(ev.Expenses))
	copy(out.Expenses, ev.Expenses)
	return out
}
