package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Storage puts a blob under key and returns a publicly resolvable URL.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidateImage checks an avatar upload before anything is stored.
func ValidateImage(contentType string, size, max int64) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !imageTypes[ct] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if max > 0 && size > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, max)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// AvatarKey scopes the object under the owner: <profileID>/<unix-ms>-<name>.
func AvatarKey(profileID uuid.UUID, filename string, now time.Time) string {
	name := unsafeName.ReplaceAllString(filepath.Base(filename), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "avatar"
	}
	return fmt.Sprintf("%s/%d-%s", profileID, now.UnixMilli(), name)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
