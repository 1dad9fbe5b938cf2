package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"nordenzelt/internal/core"
	"nordenzelt/internal/media"
	"nordenzelt/internal/store"
)

// ObjectBucket is the media bucket surface the service needs: uploads,
// removals, and recovering a bucket path from a stored public URL.
type ObjectBucket interface {
	store.ObjectStore
	ObjectPathFromURL(publicURL string) (string, bool)
}

// MediaService keeps bucket objects and database rows consistent. The
// rule on delete is object first, row second: if the object removal
// fails the row stays so the admin can retry.
type MediaService struct {
	bucket ObjectBucket
	store  store.Store
}

func NewMediaService(bucket ObjectBucket, st store.Store) *MediaService {
	return &MediaService{bucket: bucket, store: st}
}

// UploadAsset stores the file under the section's bucket prefix and
// records it as a site asset.
func (s *MediaService) UploadAsset(ctx context.Context, section, filename, contentType string, body io.Reader, displayOrder int) (core.SiteAsset, error) {
	objectPath := media.RandomObjectPath(section, filename)

	url, err := s.bucket.Upload(ctx, objectPath, contentType, body)
	if err != nil {
		return core.SiteAsset{}, fmt.Errorf("upload asset: %w", err)
	}

	asset := core.SiteAsset{URL: url, Section: section, DisplayOrder: displayOrder}
	if err := asset.Validate(); err != nil {
		s.removeOrphan(ctx, objectPath)
		return core.SiteAsset{}, err
	}

	saved, err := s.store.AddAsset(ctx, asset)
	if err != nil {
		s.removeOrphan(ctx, objectPath)
		return core.SiteAsset{}, fmt.Errorf("record asset: %w", err)
	}

	slog.InfoContext(ctx, "Asset uploaded", "id", saved.ID, "section", section, "path", objectPath)
	return saved, nil
}

// DeleteAsset removes the bucket object, then the row. A failed object
// removal aborts and keeps the row.
func (s *MediaService) DeleteAsset(ctx context.Context, id string) error {
	asset, err := s.store.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	if path, ok := s.bucket.ObjectPathFromURL(asset.URL); ok {
		if err := s.bucket.Remove(ctx, path); err != nil {
			return fmt.Errorf("remove asset object: %w", err)
		}
	}

	if err := s.store.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset row: %w", err)
	}
	return nil
}

// UploadGalleryItem stores the file under gallery/ and records it. The
// media type comes from the upload's content type.
func (s *MediaService) UploadGalleryItem(ctx context.Context, filename, contentType, title, description, folderID string, body io.Reader) (core.GalleryItem, error) {
	objectPath := media.RandomObjectPath("gallery", filename)

	url, err := s.bucket.Upload(ctx, objectPath, contentType, body)
	if err != nil {
		return core.GalleryItem{}, fmt.Errorf("upload gallery item: %w", err)
	}

	item := core.GalleryItem{
		URL:         url,
		Type:        MediaTypeFromContentType(contentType),
		Title:       title,
		Description: description,
		FolderID:    folderID,
	}
	if err := item.Validate(); err != nil {
		s.removeOrphan(ctx, objectPath)
		return core.GalleryItem{}, err
	}

	saved, err := s.store.AddGalleryItem(ctx, item)
	if err != nil {
		s.removeOrphan(ctx, objectPath)
		return core.GalleryItem{}, fmt.Errorf("record gallery item: %w", err)
	}

	slog.InfoContext(ctx, "Gallery item uploaded", "id", saved.ID, "type", saved.Type, "path", objectPath)
	return saved, nil
}

// DeleteGalleryItem removes the bucket object, then the row.
func (s *MediaService) DeleteGalleryItem(ctx context.Context, id string) error {
	item, err := s.store.GetGalleryItem(ctx, id)
	if err != nil {
		return err
	}

	if path, ok := s.bucket.ObjectPathFromURL(item.URL); ok {
		if err := s.bucket.Remove(ctx, path); err != nil {
			return fmt.Errorf("remove gallery object: %w", err)
		}
	}

	if err := s.store.DeleteGalleryItem(ctx, id); err != nil {
		return fmt.Errorf("delete gallery row: %w", err)
	}
	return nil
}

func (s *MediaService) removeOrphan(ctx context.Context, objectPath string) {
	if err := s.bucket.Remove(ctx, objectPath); err != nil {
		slog.ErrorContext(ctx, "Failed to remove orphaned object", "path", objectPath, "error", err)
	}
}

// MediaTypeFromContentType maps an upload's MIME type to the stored
// media type. Anything that is not a video counts as an image.
func MediaTypeFromContentType(contentType string) core.MediaType {
	if strings.HasPrefix(contentType, "video/") {
		return core.MediaVideo
	}
	return core.MediaImage
}
