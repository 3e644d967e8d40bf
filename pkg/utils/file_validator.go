package utils

import (
	"fmt"
	"io"
	"net/http"
	"slices"
)

var allowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ValidatePhoto проверяет размер и содержимое загружаемой фотографии.
// Возвращает определённый MIME-тип.
func ValidatePhoto(file io.ReadSeeker, size, maxSize int64) (string, error) {
	if maxSize > 0 && size > maxSize {
		return "", fmt.Errorf("размер файла (%d KB) превышает лимит в %d MB", size/1024, maxSize>>20)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("не удалось прочитать файл для определения типа")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("не удалось сбросить указатель файла")
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(allowedPhotoTypes, mimeType) {
		return "", fmt.Errorf("недопустимый тип файла: %s", mimeType)
	}

	return mimeType, nil
}
