// Package blobstore keeps uploaded documents on the local filesystem.
//
// Each stored file gets a locator of the form "<uuid>_<name>", so uploads
// with the same name never collide. Locators resolve to paths under the
// store's root and are rejected if they would escape it.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidLocator is returned for locators that are empty or escape the root.
	ErrInvalidLocator = errors.New("invalid locator")

	// ErrInvalidName is returned when an upload has no usable file name.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotFound is returned when no file exists for a locator.
	ErrNotFound = errors.New("blob not found")
)

// Store is a directory of uploaded files.
type Store struct {
	root   string
	logger *slog.Logger
}

// New opens a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{
		root:   root,
		logger: slog.Default().With("component", "blobstore"),
	}, nil
}

// Root returns the absolute directory files are stored in.
func (s *Store) Root() string {
	return s.root
}

// Put copies r into the store under a fresh locator derived from name.
// Only the base name of name is kept.
func (s *Store) Put(name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	locator := uuid.New().String() + "_" + base

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", locator, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, locator)); err != nil {
		return "", err
	}

	s.logger.Debug("stored upload", "locator", locator, "bytes", n)
	return locator, nil
}

// Resolve returns the local path for locator.
func (s *Store) Resolve(locator string) (string, error) {
	if locator == "" || filepath.IsAbs(locator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	path := filepath.Join(s.root, locator)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return path, nil
}

// Open returns a reader for the file stored under locator.
func (s *Store) Open(locator string) (io.ReadCloser, error) {
	path, err := s.Resolve(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return f, err
}

// Delete removes the file stored under locator.
func (s *Store) Delete(locator string) error {
	path, err := s.Resolve(locator)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return err
}
