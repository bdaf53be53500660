package cache

import (
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive mirrors sidecar files to an object store, so a cache root kept on
// ephemeral local disk can be reconstructed after a worker is recycled.
// Mirroring is best-effort: a failed upload is logged by the caller but
// never fails the pipeline stage it shadows.
type Archive struct {
	client *minio.Client
	bucket string
}

// ArchiveConfig configures the backing MinIO bucket.
type ArchiveConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// NewArchive connects to MinIO and ensures the bucket exists.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("archive: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("archive: create bucket: %w", err)
		}
	}

	return &Archive{client: client, bucket: cfg.BucketName}, nil
}

// Mirror uploads a single sidecar file under its stem/suffix-derived
// object key.
func (a *Archive) Mirror(ctx context.Context, localPath, objectKey string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("archive: stat %s: %w", localPath, err)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = a.client.PutObject(ctx, a.bucket, objectKey, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive: upload %s: %w", objectKey, err)
	}
	return nil
}

// Restore downloads a mirrored sidecar to localPath, overwriting any
// existing file, used to warm a fresh cache root before a resumed run.
func (a *Archive) Restore(ctx context.Context, objectKey, localPath string) error {
	return a.client.FGetObject(ctx, a.bucket, objectKey, localPath, minio.GetObjectOptions{})
}

// Exists reports whether objectKey is present in the bucket.
func (a *Archive) Exists(ctx context.Context, objectKey string) bool {
	_, err := a.client.StatObject(ctx, a.bucket, objectKey, minio.StatObjectOptions{})
	return err == nil
}
