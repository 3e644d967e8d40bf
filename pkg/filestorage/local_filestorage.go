// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию: %w", err)
		}
	}
	return &LocalFileStorage{basePath: basePath}, nil
}

func (s *LocalFileStorage) Save(_ context.Context, file io.Reader, _ int64, originalFileName, _ string, prefix string) (string, error) {
	name := objectName(originalFileName, prefix, time.Now())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	return name, nil
}

func (s *LocalFileStorage) Open(_ context.Context, filePath string) (io.ReadCloser, error) {
	relativePath, err := cleanRelative(filePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(relativePath)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete считает отсутствующий файл успешно удалённым.
func (s *LocalFileStorage) Delete(_ context.Context, filePath string) error {
	relativePath, err := cleanRelative(filePath)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
