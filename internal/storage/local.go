package storage

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pos-suite/pos-backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeBlocked = errors.New("file type is not allowed")
)

// LocalStore saves uploads under a single directory with generated names,
// enforcing the size and content-type limits from configuration.
type LocalStore struct {
	dir          string
	maxSize      int64
	allowedTypes map[string]struct{}
}

func NewLocalStore(cfg *config.Config) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedFileTypes))
	for _, t := range cfg.AllowedFileTypes {
		allowed[t] = struct{}{}
	}
	return &LocalStore{
		dir:          cfg.UploadDir,
		maxSize:      cfg.MaxUploadSize,
		allowedTypes: allowed,
	}, nil
}

// Save validates and stores the uploaded file, returning the stored filename.
func (s *LocalStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxSize {
		return "", ErrFileTooLarge
	}
	contentType := file.Header.Get("Content-Type")
	if _, ok := s.allowedTypes[contentType]; !ok {
		return "", ErrFileTypeBlocked
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(file.Filename))
	dst := filepath.Join(s.dir, name)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return name, nil
}

func (s *LocalStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
