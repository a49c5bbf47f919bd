package minio_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/kena741/zuluskills-admin/internal/models"
)

type AvatarStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewAvatarStorage(ctx context.Context, storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*AvatarStorage, error) {
	if err := storage.EnsureBucket(ctx, bucketName); err != nil {
		return nil, err
	}
	if presignedTTL <= 0 {
		presignedTTL = time.Hour
	}
	return &AvatarStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

// AvatarKey names the object for a new avatar upload. Every upload gets a
// fresh key so cached presigned URLs never show a stale image.
func AvatarKey(studentID models.ID, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".bin"
		}
	}
	return fmt.Sprintf("profiles/%s/avatar-%s%s", studentID.Key(), uuid.NewString(), ext)
}

func (s *AvatarStorage) UploadAvatar(
	ctx context.Context,
	studentID models.ID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	objectKey = AvatarKey(studentID, filename, contentType)

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(objectKey))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err = s.storage.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

func (s *AvatarStorage) AvatarURL(ctx context.Context, objectKey string) (string, error) {
	presignedURL, err := s.storage.client.PresignedGetObject(
		ctx,
		s.bucket,
		objectKey,
		s.presignedTTL,
		make(url.Values),
	)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

func (s *AvatarStorage) DeleteAvatar(ctx context.Context, objectKey string) error {
	return s.storage.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
