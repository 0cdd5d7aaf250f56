// Package storage keeps image payloads on the local filesystem, addressed by
// generated paths that live independently of the relational rows.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kirill-Khudyakov/shotline/utils"
)

// Local stores blobs under a media root directory.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Root returns the media root directory, for the static file route.
func (l *Local) Root() string {
	return l.root
}

// Save writes a payload under posts/images/YYYY/MM/DD/<uuid><ext> and
// returns the path relative to the media root. The original filename only
// contributes its extension.
func (l *Local) Save(r io.Reader, originalName string) (string, error) {
	now := time.Now()
	relDir := filepath.Join("posts", "images", now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(filepath.Join(l.root, relDir), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	relPath := filepath.Join(relDir, uuid.NewString()+ext)

	out, err := os.Create(filepath.Join(l.root, relPath))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		_ = os.Remove(filepath.Join(l.root, relPath))
		return "", fmt.Errorf("write media file: %w", err)
	}
	return filepath.ToSlash(relPath), nil
}

// Remove deletes blobs by their relative paths. Best-effort: rows are already
// gone when this runs, a leftover file only wastes disk.
func (l *Local) Remove(relPaths ...string) {
	for _, p := range relPaths {
		if p == "" {
			continue
		}
		if err := os.Remove(filepath.Join(l.root, filepath.FromSlash(p))); err != nil && !os.IsNotExist(err) {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("failed to remove media blob %s: %v", p, err)
			}
		}
	}
}
