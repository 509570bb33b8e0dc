package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"refund-backend/internal/config"
)

// =====================================================
// EVIDENCE STORAGE
// =====================================================

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = 1 * time.Hour
)

// EvidenceStorage keeps refund evidence documents (receipts, photos,
// correspondence) in object storage. Clients upload and download through
// presigned URLs; the API never proxies file bytes.
type EvidenceStorage struct {
	client *minio.Client
	bucket string
}

func NewEvidenceStorage(cfg config.MinIOConfig) (*EvidenceStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &EvidenceStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ObjectKey scopes evidence under tenant and refund so a prefix delete
// cleans up everything a refund accumulated.
func ObjectKey(tenantID, refundID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s_%s", tenantID, refundID, xid.New().String(), filename)
}

// PresignUpload returns a short-lived PUT URL for a new evidence object.
func (s *EvidenceStorage) PresignUpload(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, uploadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return u.String(), nil
}

// PresignDownload returns a short-lived GET URL for an existing evidence
// object.
func (s *EvidenceStorage) PresignDownload(ctx context.Context, key string) (string, error) {
	params := make(url.Values)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, downloadURLExpiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return u.String(), nil
}

// Delete removes a single evidence object.
func (s *EvidenceStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// DeleteForRefund removes every evidence object a refund accumulated.
func (s *EvidenceStorage) DeleteForRefund(ctx context.Context, tenantID, refundID uuid.UUID) error {
	prefix := fmt.Sprintf("%s/%s/", tenantID, refundID)

	objectsCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return fmt.Errorf("error listing objects: %w", object.Err)
		}

		if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", object.Key, err)
		}
	}

	return nil
}
