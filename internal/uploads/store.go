// Package uploads stores gym images and payment QR codes on local disk.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxFiles caps the files accepted in one request.
const MaxFiles = 10

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("only JPEG, PNG, WebP and GIF images are allowed")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Store writes uploads under Dir and addresses them below BaseURL.
type Store struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

// NewStore builds Store, creating dir when missing.
func NewStore(dir, baseURL string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes}, nil
}

// Save sniffs r and writes it under a random name. It returns the public URL.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", ErrTooLarge
	}
	kind := mimetype.Detect(data)
	if !mimetype.EqualsAny(kind.String(), allowedTypes...) {
		return "", ErrUnsupportedType
	}
	name := uuid.NewString() + kind.Extension()
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.BaseURL + "/" + name, nil
}

// Remove deletes the file behind a URL returned by Save.
func (s *Store) Remove(url string) error {
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Sweep deletes files older than maxAge whose names appear in none of the
// referenced URLs. It returns the number of files removed.
func (s *Store) Sweep(ctx context.Context, referenced []string, maxAge time.Duration, now time.Time) (int, error) {
	keep := make(map[string]struct{}, len(referenced))
	for _, ref := range referenced {
		keep[path.Base(ref)] = struct{}{}
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
