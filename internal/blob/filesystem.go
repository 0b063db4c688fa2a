// Package blob stores uploaded binary content and hands back a URL. The
// store is opaque to callers; this implementation keeps objects on the local
// filesystem under per-container directories.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Filesystem struct {
	baseDir string
	baseURL string
}

func NewFilesystem(baseDir, baseURL string) *Filesystem {
	return &Filesystem{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload writes the content under the container and returns its URL. Object
// names are timestamp-prefixed so repeat uploads never collide.
func (f *Filesystem) Upload(ctx context.Context, container, name string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	object := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102_150405"), sanitize(name))
	dir := filepath.Join(f.baseDir, container)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create container %s: %w", container, err)
	}

	dst, err := os.Create(filepath.Join(dir, object))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	return fmt.Sprintf("%s/%s/%s", f.baseURL, container, object), nil
}

func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
