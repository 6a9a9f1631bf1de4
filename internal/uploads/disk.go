package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskArchive writes images below a root directory.
type DiskArchive struct {
	root string
	now  func() time.Time
}

// NewDiskArchive returns an archive rooted at dir.
func NewDiskArchive(dir string) *DiskArchive {
	return &DiskArchive{root: dir, now: time.Now}
}

// Save writes the image and returns its path.
func (d *DiskArchive) Save(ctx context.Context, userID int64, image []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(d.root, filepath.FromSlash(ObjectKey(userID, d.now(), contentType)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}
