// Package filestore persists uploaded assignments on the local filesystem.
// Storage is append-only: a new upload never deletes a prior file, the
// student record just points at the latest one.
package filestore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var pdfMagic = []byte("%PDF-")

// Store writes files under a single directory.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage root, for static serving.
func (s *Store) Dir() string { return s.dir }

// Saved describes a stored file.
type Saved struct {
	Filename string
	Path     string
	Size     int64
}

// Save streams r to disk under a collision-resistant name: the original name
// prefixed with the current unix-millisecond timestamp.
func (s *Store) Save(originalName string, r io.Reader) (Saved, error) {
	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + SanitizeName(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Saved{}, fmt.Errorf("filestore: create %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return Saved{}, fmt.Errorf("filestore: write %s: %w", name, err)
	}
	return Saved{Filename: name, Path: path, Size: n}, nil
}

// Open opens a previously stored file by its stored name.
func (s *Store) Open(filename string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(filename)))
}

// SanitizeName strips path separators and awkward characters from a
// client-supplied filename.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload.pdf"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// IsPDF sniffs the payload head for the PDF magic bytes.
func IsPDF(head []byte) bool {
	return bytes.HasPrefix(head, pdfMagic)
}
