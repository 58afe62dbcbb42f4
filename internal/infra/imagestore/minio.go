package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/healapp/mealtrack/internal/domain/capture"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// ObjectStore keeps saved meal photos in any S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewObjectStore constructs the S3-compatible photo store.
func NewObjectStore(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: bucket, logger: logger.With("component", "imagestore.object")}, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Put uploads a saved meal photo under the given key.
func (s *ObjectStore) Put(ctx context.Context, key string, imageJPEG []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "ensure photo bucket", err)
	}
	reader := bytes.NewReader(imageJPEG)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(imageJPEG)), minio.PutObjectOptions{
		ContentType:      "image/jpeg",
		DisableMultipart: len(imageJPEG) < 5*1024*1024, // small uploads as single part
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "store meal photo "+key, err)
	}
	s.logger.Debug("meal photo stored", "key", key, "bytes", len(imageJPEG))
	return nil
}

// Delete removes a saved meal photo.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "remove meal photo "+key, err)
	}
	return nil
}

var _ capture.ImageStore = (*ObjectStore)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}
