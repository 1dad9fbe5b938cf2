package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"nordenzelt/internal/core"
	"nordenzelt/internal/store/memory"
)

type fakeBucket struct {
	objects    map[string]bool
	failUpload bool
	failRemove bool
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string]bool{}}
}

func (b *fakeBucket) Upload(_ context.Context, path, _ string, body io.Reader) (string, error) {
	if b.failUpload {
		return "", errors.New("bucket unavailable")
	}
	io.Copy(io.Discard, body)
	b.objects[path] = true
	return "https://cdn.example.com/" + path, nil
}

func (b *fakeBucket) Remove(_ context.Context, path string) error {
	if b.failRemove {
		return errors.New("bucket unavailable")
	}
	delete(b.objects, path)
	return nil
}

func (b *fakeBucket) ObjectPathFromURL(url string) (string, bool) {
	p := strings.TrimPrefix(url, "https://cdn.example.com/")
	return p, p != url
}

func TestUploadAsset(t *testing.T) {
	bucket := newFakeBucket()
	st := memory.New()
	svc := NewMediaService(bucket, st)

	asset, err := svc.UploadAsset(context.Background(), core.SectionHero, "foto.jpg", "image/jpeg", strings.NewReader("bin"), 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(asset.URL, "hero/") || !strings.HasSuffix(asset.URL, ".jpg") {
		t.Fatalf("unexpected url %q", asset.URL)
	}

	assets, _ := st.ListAssets(context.Background(), core.SectionHero)
	if len(assets) != 1 {
		t.Fatalf("expected 1 recorded asset, got %d", len(assets))
	}
	if len(bucket.objects) != 1 {
		t.Fatalf("expected 1 object in bucket, got %d", len(bucket.objects))
	}
}

func TestUploadAssetInvalidSection(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewMediaService(bucket, memory.New())

	if _, err := svc.UploadAsset(context.Background(), "sidebar", "x.jpg", "image/jpeg", strings.NewReader("b"), 0); !errors.Is(err, core.ErrInvalidSection) {
		t.Fatalf("expected ErrInvalidSection, got %v", err)
	}
	if len(bucket.objects) != 0 {
		t.Fatal("rejected upload should not leave an object behind")
	}
}

func TestDeleteAssetKeepsRowWhenObjectRemovalFails(t *testing.T) {
	bucket := newFakeBucket()
	st := memory.New()
	svc := NewMediaService(bucket, st)

	asset, err := svc.UploadAsset(context.Background(), core.SectionCarousel, "x.jpg", "image/jpeg", strings.NewReader("b"), 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	bucket.failRemove = true
	if err := svc.DeleteAsset(context.Background(), asset.ID); err == nil {
		t.Fatal("expected error when object removal fails")
	}
	if _, err := st.GetAsset(context.Background(), asset.ID); err != nil {
		t.Fatalf("row should remain after failed object removal: %v", err)
	}

	bucket.failRemove = false
	if err := svc.DeleteAsset(context.Background(), asset.ID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if len(bucket.objects) != 0 {
		t.Fatal("object should be gone after retry")
	}
}

func TestDeleteGalleryItemKeepsRowWhenObjectRemovalFails(t *testing.T) {
	bucket := newFakeBucket()
	st := memory.New()
	svc := NewMediaService(bucket, st)

	item, err := svc.UploadGalleryItem(context.Background(), "boda.jpg", "image/jpeg", "Boda", "", "", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	bucket.failRemove = true
	if err := svc.DeleteGalleryItem(context.Background(), item.ID); err == nil {
		t.Fatal("expected error when object removal fails")
	}
	if _, err := st.GetGalleryItem(context.Background(), item.ID); err != nil {
		t.Fatalf("row should remain after failed object removal: %v", err)
	}
	if len(bucket.objects) != 1 {
		t.Fatal("object should still be in the bucket")
	}

	bucket.failRemove = false
	if err := svc.DeleteGalleryItem(context.Background(), item.ID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if _, err := st.GetGalleryItem(context.Background(), item.ID); err == nil {
		t.Fatal("row should be gone after retry")
	}
	if len(bucket.objects) != 0 {
		t.Fatal("object should be gone after retry")
	}
}

func TestUploadGalleryItemTypeFromContentType(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewMediaService(bucket, memory.New())

	img, err := svc.UploadGalleryItem(context.Background(), "a.jpg", "image/jpeg", "Boda", "", "", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("upload image: %v", err)
	}
	if img.Type != core.MediaImage {
		t.Fatalf("type = %s, want image", img.Type)
	}

	vid, err := svc.UploadGalleryItem(context.Background(), "a.mp4", "video/mp4", "Clip", "", "", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("upload video: %v", err)
	}
	if vid.Type != core.MediaVideo {
		t.Fatalf("type = %s, want video", vid.Type)
	}
}

func TestUploadGalleryItemBucketFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failUpload = true
	st := memory.New()
	svc := NewMediaService(bucket, st)

	if _, err := svc.UploadGalleryItem(context.Background(), "a.jpg", "image/jpeg", "", "", "", strings.NewReader("b")); err == nil {
		t.Fatal("expected error")
	}
	items, _ := st.ListGalleryItems(context.Background())
	if len(items) != 0 {
		t.Fatal("no row should be recorded when the upload fails")
	}
}
