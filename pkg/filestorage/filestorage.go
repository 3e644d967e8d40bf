package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("файл не найден")

// FileStorageInterface — хранилище фотографий заявок.
// Пути, которые возвращает Save, относительные и используют прямой слэш.
type FileStorageInterface interface {
	Save(ctx context.Context, file io.Reader, size int64, originalFileName, contentType, prefix string) (filePath string, err error)
	Open(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
}

// objectName строит уникальное имя вида prefix/2024/08/21/2024-08-21-<uuid>.jpg
func objectName(originalFileName, prefix string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), uuid.New().String(), ext)
	return path.Join(prefix, now.Format("2006/01/02"), uniqueFileName)
}

// cleanRelative отбрасывает попытки выйти за пределы хранилища.
func cleanRelative(filePath string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(filePath), "/uploads/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("пустой путь к файлу")
	}
	return cleaned, nil
}
