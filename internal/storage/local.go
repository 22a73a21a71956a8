package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage writes under dir; fiber serves dir at /uploads.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, appBaseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: joinURL(appBaseURL, "uploads")}
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// rooting the key before Clean strips any ".." segments
	clean := filepath.Clean("/" + key)
	dst := filepath.Join(s.dir, clean)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}

	return joinURL(s.baseURL, filepath.ToSlash(clean)), nil
}
