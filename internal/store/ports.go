// Package store defines the persistence ports the HTTP layer and the
// services are written against. The sqlite repository and the in-memory
// store are the two inbound implementations.
package store

import (
	"context"
	"errors"
	"io"

	"nordenzelt/internal/core"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type (
	EventStore interface {
		// ListEvents returns all events ordered by date, each with its
		// expenses attached.
		ListEvents(ctx context.Context) ([]core.Event, error)
		GetEvent(ctx context.Context, id string) (core.Event, error)
		// SaveEvent upserts the event row and replaces its expense rows
		// wholesale, returning the event with assigned identifiers.
		SaveEvent(ctx context.Context, ev core.Event) (core.Event, error)
		// DeleteEvent removes the event row; expense cleanup is the
		// schema's cascade, not ours.
		DeleteEvent(ctx context.Context, id string) error
	}

	AssetStore interface {
		// ListAssets returns assets ordered by display_order; an empty
		// section means all sections.
		ListAssets(ctx context.Context, section string) ([]core.SiteAsset, error)
		GetAsset(ctx context.Context, id string) (core.SiteAsset, error)
		AddAsset(ctx context.Context, a core.SiteAsset) (core.SiteAsset, error)
		DeleteAsset(ctx context.Context, id string) error
	}

	ContentStore interface {
		ListContent(ctx context.Context) ([]core.SiteContent, error)
		// UpdateContent changes only the value of an existing entry;
		// keys and labels are fixed by the seed data.
		UpdateContent(ctx context.Context, id, value string) error
	}

	GalleryStore interface {
		ListGalleryItems(ctx context.Context) ([]core.GalleryItem, error)
		GetGalleryItem(ctx context.Context, id string) (core.GalleryItem, error)
		AddGalleryItem(ctx context.Context, it core.GalleryItem) (core.GalleryItem, error)
		UpdateGalleryItem(ctx context.Context, it core.GalleryItem) error
		DeleteGalleryItem(ctx context.Context, id string) error

		ListFolders(ctx context.Context) ([]core.GalleryFolder, error)
		AddFolder(ctx context.Context, f core.GalleryFolder) (core.GalleryFolder, error)
		DeleteFolder(ctx context.Context, id string) error
	}

	// ObjectStore is the media bucket: binary in, public URL out.
	ObjectStore interface {
		Upload(ctx context.Context, path, contentType string, body io.Reader) (publicURL string, err error)
		Remove(ctx context.Context, path string) error
	}

	// Store is the full persistence surface backing the application.
	Store interface {
		EventStore
		AssetStore
		ContentStore
		GalleryStore
		Close() error
	}
)
