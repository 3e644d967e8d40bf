package filestorage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MinioFileStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioFileStorage(ctx context.Context, cfg MinioConfig) (*MinioFileStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить бакет %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("не удалось создать бакет %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioFileStorage{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioFileStorage) Save(ctx context.Context, file io.Reader, size int64, originalFileName, contentType, prefix string) (string, error) {
	name := objectName(originalFileName, prefix, time.Now())

	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, file, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("не удалось загрузить файл в MinIO: %w", err)
	}
	return name, nil
}

func (s *MinioFileStorage) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	relativePath, err := cleanRelative(filePath)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, relativePath, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	return s.client.GetObject(ctx, s.bucket, relativePath, minio.GetObjectOptions{})
}

func (s *MinioFileStorage) Delete(ctx context.Context, filePath string) error {
	relativePath, err := cleanRelative(filePath)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, relativePath, minio.RemoveObjectOptions{})
}
