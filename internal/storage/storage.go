// Package storage persists uploaded order attachments on local disk and
// enforces the upload policy: extension whitelist, per-file size cap, and a
// per-request file limit.
package storage

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"atelier/internal/models"
)

const (
	// MaxFilesPerUpload caps how many attachments one request may carry.
	MaxFilesPerUpload = 5
	// MaxFileSize caps a single attachment at 50MB.
	MaxFileSize = 50 << 20
)

// allowedExtensions is the upload whitelist. Anything else is rejected
// before touching disk.
var allowedExtensions = map[string]bool{
	".zip":  true,
	".rar":  true,
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

// StoredFile describes a file after it has been written to disk.
type StoredFile struct {
	StoredName   string
	OriginalName string
	Path         string
}

// Store writes uploaded files under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage: resolve root: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the absolute upload directory.
func (s *Store) Root() string {
	return s.root
}

// ValidateBatch checks the upload policy for a set of file headers without
// writing anything.
func ValidateBatch(files []*multipart.FileHeader) error {
	if len(files) > MaxFilesPerUpload {
		return models.NewValidationError(
			fmt.Sprintf("Too many files: at most %d per upload", MaxFilesPerUpload))
	}
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExtensions[ext] {
			return models.NewValidationError(
				fmt.Sprintf("File type %q is not allowed", ext))
		}
		if fh.Size > MaxFileSize {
			return models.NewValidationError(
				fmt.Sprintf("File %q exceeds the 50MB limit", fh.Filename))
		}
	}
	return nil
}

// SaveBatch validates and writes all files under the given field name.
// Stored names are unique per upload: field, timestamp, and a random suffix.
func (s *Store) SaveBatch(field string, files []*multipart.FileHeader) ([]StoredFile, error) {
	if err := ValidateBatch(files); err != nil {
		return nil, err
	}

	stored := make([]StoredFile, 0, len(files))
	for _, fh := range files {
		sf, err := s.save(field, fh)
		if err != nil {
			return nil, err
		}
		stored = append(stored, sf)
	}
	return stored, nil
}

func (s *Store) save(field string, fh *multipart.FileHeader) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	storedName := fmt.Sprintf("%s-%d-%d%s",
		field, time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
	full := filepath.Join(s.root, storedName)

	src, err := fh.Open()
	if err != nil {
		return StoredFile{}, models.NewInternalError(fmt.Errorf("storage: open upload %s: %w", fh.Filename, err))
	}
	defer src.Close()

	dst, err := os.Create(full)
	if err != nil {
		return StoredFile{}, models.NewInternalError(fmt.Errorf("storage: create %s: %w", storedName, err))
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(full)
		return StoredFile{}, models.NewInternalError(fmt.Errorf("storage: write %s: %w", storedName, err))
	}

	return StoredFile{
		StoredName:   storedName,
		OriginalName: fh.Filename,
		Path:         full,
	}, nil
}

// Remove deletes stored files from disk, ignoring missing ones.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}

// Healthy reports whether the upload root is writable.
func (s *Store) Healthy() bool {
	probe := filepath.Join(s.root, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}
