// Package uploads archives accepted images before they are analysed.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Archive stores an uploaded image and returns where it went.
type Archive interface {
	Save(ctx context.Context, userID int64, image []byte, contentType string) (string, error)
}

// ObjectKey builds uploads/<user>/<yyyy>/<mm>/<dd>/<uuid>.<ext>.
func ObjectKey(userID int64, at time.Time, contentType string) string {
	at = at.UTC()
	return fmt.Sprintf("uploads/%d/%04d/%02d/%02d/%s%s",
		userID, at.Year(), int(at.Month()), at.Day(), uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return ".bin"
}
