package storage

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes uploaded documents to the local filesystem under a
// configured base directory. Paths returned to callers are relative to that
// base so the rows stay valid if the base moves.
type LocalStorage struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

func NewLocalStorage(basePath, baseURL string, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// StoredName builds a collision-resistant filename for an upload, keeping the
// original extension: <prefix>_<uuid>.<ext>
func StoredName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	safePrefix := sanitizeName(prefix)
	return fmt.Sprintf("%s_%s%s", safePrefix, uuid.New().String(), ext)
}

// SaveMultipart stores an uploaded file under subdir/filename and returns the
// path relative to the storage base.
func (s *LocalStorage) SaveMultipart(fh *multipart.FileHeader, subdir, filename string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	relPath := filepath.Join(subdir, filename)
	fullPath := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("file stored",
		slog.String("path", relPath),
		slog.Int64("size", fh.Size),
	)

	return filepath.ToSlash(relPath), nil
}

// Delete removes a previously stored file. Missing files are not an error.
func (s *LocalStorage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug("file deleted", slog.String("path", relPath))
	return nil
}

// PublicURL maps a stored relative path to its public URL.
func (s *LocalStorage) PublicURL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(relPath), "/")
}

func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
