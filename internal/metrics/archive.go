package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fieldservice_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver keeps a copy of every stored snapshot outside the database.
type Archiver interface {
	Archive(ctx context.Context, snap Snapshot) error
}

// MinIOArchiver writes snapshots as JSON objects named <type>/<date>.json.
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchiver connects to MinIO and makes sure the bucket exists.
func NewMinIOArchiver(ctx context.Context, cfg config.MinIOConfig) (*MinIOArchiver, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	a := &MinIOArchiver{client: client, bucket: cfg.GetMinioBucketSnapshots()}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinIOArchiver) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// ObjectKey is the archive object name of snap.
func ObjectKey(snap Snapshot) string {
	return fmt.Sprintf("%s/%s.json", snap.MetricType, snap.Date.Format("2006-01-02"))
}

func (a *MinIOArchiver) Archive(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := ObjectKey(snap)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}
	return nil
}
