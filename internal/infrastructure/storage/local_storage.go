package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	contentapp "github.com/datadik/portal/internal/application/content"
)

// LocalObjectStorage keeps files on local disk. It is used when object
// storage is disabled and serves files under BaseURL.
type LocalObjectStorage struct {
	Dir     string
	BaseURL string
}

// NewLocalObjectStorage creates the directory if needed
func NewLocalObjectStorage(dir, baseURL string) (*LocalObjectStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalObjectStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

var _ contentapp.ObjectStorage = (*LocalObjectStorage)(nil)

// path resolves storageKey inside Dir and rejects traversal
func (s *LocalObjectStorage) path(storageKey string) (string, error) {
	if storageKey == "" {
		return "", errEmptyKey
	}
	clean := path.Clean("/" + storageKey)
	if clean == "/" || strings.Contains(storageKey, "..") {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return filepath.Join(s.Dir, filepath.FromSlash(clean)), nil
}

// Upload writes body to disk
func (s *LocalObjectStorage) Upload(_ context.Context, storageKey string, body io.Reader, _ int64, _ string) (string, error) {
	p, err := s.path(storageKey)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return s.BaseURL + "/" + strings.TrimPrefix(storageKey, "/"), nil
}

// GenerateDownloadURL returns the static URL. Local files do not expire.
func (s *LocalObjectStorage) GenerateDownloadURL(_ context.Context, storageKey, fileName string, expiresIn time.Duration) (string, time.Time, error) {
	if _, err := s.path(storageKey); err != nil {
		return "", time.Time{}, err
	}
	u := s.BaseURL + "/" + strings.TrimPrefix(storageKey, "/")
	if fileName != "" {
		u += "?filename=" + url.QueryEscape(fileName)
	}
	return u, time.Now().Add(expiresIn), nil
}

// DeleteObject removes the file. Missing files are not an error.
func (s *LocalObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	p, err := s.path(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectExists reports whether the file is on disk
func (s *LocalObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	p, err := s.path(storageKey)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}
