package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/pagedrop/models"
)

// maxImageBytes caps a downloaded product image.
const maxImageBytes = 20 << 20

// Bucket keeps product images under <dir>/products.
type Bucket struct {
	dir    string
	client *http.Client
}

// NewBucket creates the bucket directory. A nil client uses a fresh
// http.Client.
func NewBucket(dir string, client *http.Client) (*Bucket, error) {
	if client == nil {
		client = &http.Client{}
	}
	if err := os.MkdirAll(filepath.Join(dir, "products"), 0o755); err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bucket{dir: dir, client: client}, nil
}

// Key returns the object key an image name is stored under.
func Key(name string) string { return "products/" + name }

// Upload downloads imageURL and stores it as products/<name>, replacing
// any previous object. It returns the path written.
func (b *Bucket) Upload(ctx context.Context, name, imageURL string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", models.NewProcessError(models.ErrCodeUpload, fmt.Sprintf("invalid image name %q", name), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", models.NewProcessError(models.ErrCodeUpload, "build image request", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", models.NewProcessError(models.ErrCodeUpload, "download image", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", models.NewProcessError(models.ErrCodeUpload, fmt.Sprintf("image host returned %d", resp.StatusCode), nil)
	}

	path := filepath.Join(b.dir, filepath.FromSlash(Key(name)))
	if err := writeAtomic(path, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		return "", models.NewProcessError(models.ErrCodeUpload, "store image", err)
	}
	return path, nil
}

// writeAtomic writes r to a temp file next to path and renames it into
// place.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
