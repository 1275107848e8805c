// Package storage is the object-store collaborator: uploaded files land on
// disk under a per-company folder. Paths stored on Document rows are
// relative to the store root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)

type Store struct {
	BaseDir string
}

func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{BaseDir: baseDir}, nil
}

// SanitizeName strips path separators and unsafe characters from an
// uploaded filename.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "fichier"
	}
	return name
}

// Save writes the reader's content under company-<id>/ with a timestamped
// unique name and returns the relative path and size.
func (s *Store) Save(companyID uint, name string, r io.Reader) (string, int64, error) {
	dir := fmt.Sprintf("company-%d", companyID)
	if err := os.MkdirAll(filepath.Join(s.BaseDir, dir), 0o755); err != nil {
		return "", 0, err
	}
	clean := SanitizeName(name)
	rel := filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), clean))
	f, err := os.Create(filepath.Join(s.BaseDir, rel))
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return rel, size, nil
}

// Open returns the stored file for reading. The relative path is validated
// against escapes out of the store root.
func (s *Store) Open(rel string) (*os.File, error) {
	full := filepath.Join(s.BaseDir, filepath.Clean("/"+rel))
	if !strings.HasPrefix(full, filepath.Clean(s.BaseDir)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("invalid path: %s", rel)
	}
	return os.Open(full)
}

// Remove deletes a stored file; missing files are not an error.
func (s *Store) Remove(rel string) error {
	full := filepath.Join(s.BaseDir, filepath.Clean("/"+rel))
	err := os.Remove(full)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
