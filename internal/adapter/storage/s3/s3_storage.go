package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const objectPrefix = "products/"

type S3Storage struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

var _ repository.ImageStorage = (*S3Storage)(nil)

// NewS3Storage connects to an S3-compatible endpoint and makes sure the
// bucket exists.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*S3Storage, error) {
	log = log.Named("s3")
	log.Infof("Initializing object storage endpoint=%s bucket=%s ssl=%t", cfg.Endpoint, cfg.BucketName, cfg.UseSSL)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
	if err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.BucketName)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("failed to make or verify bucket %s: make=%v exists=%v", cfg.BucketName, err, errExists)
		}
		log.Debugf("Bucket %s already exists", cfg.BucketName)
	}

	return &S3Storage{client: client, bucket: cfg.BucketName, log: log}, nil
}

func objectKey(fileName string) string {
	return objectPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
}

func (s *S3Storage) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := objectKey(fileName)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": filepath.Base(fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.log.Infof("Uploaded image key=%s size=%d", info.Key, info.Size)

	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}
