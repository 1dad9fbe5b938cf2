// Package media is the HTTP client for the object storage bucket that
// holds site and gallery uploads.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	bucket  string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, bucket, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores the object and returns its public URL.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(objectPath), body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: status %d: %s", objectPath, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return c.PublicURL(objectPath), nil
}

// Remove deletes the object. Removing a missing object is not an error.
func (c *Client) Remove(ctx context.Context, objectPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(objectPath), nil)
	if err != nil {
		return fmt.Errorf("build remove request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remove %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remove %s: status %d: %s", objectPath, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// PublicURL returns the unauthenticated read URL for an object.
func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
}

// ObjectPathFromURL recovers the bucket path from a public URL so a row
// that only stores the URL can still be deleted from the bucket.
func (c *Client) ObjectPathFromURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", c.baseURL, c.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	p := strings.TrimPrefix(publicURL, prefix)
	if p == "" {
		return "", false
	}
	return p, true
}

func (c *Client) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)
}

// RandomObjectPath builds "{prefix}/{random}.{ext}" keeping only the
// original filename's extension.
func RandomObjectPath(prefix, filename string) string {
	b := make([]byte, 8)
	rand.Read(b)
	name := hex.EncodeToString(b)
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		name += ext
	}
	return path.Join(prefix, name)
}
