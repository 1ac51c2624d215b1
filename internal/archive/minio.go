package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"nearby-imagery-api/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Options configures the object store connection. An empty Endpoint disables archiving.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

const DefaultBucket = "imagery-refresh"

// objectStore is the subset of *minio.Client the archiver needs.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchiver writes refresh snapshots as JSON objects.
type MinioArchiver struct {
	client objectStore
	bucket string
	logger zerolog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewMinio connects to the object store. The bucket is created on first use.
func NewMinio(opts Options, logger zerolog.Logger) (*MinioArchiver, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: failed to create client: %w", err)
	}
	return newMinioArchiver(client, opts.Bucket, logger), nil
}

func newMinioArchiver(client objectStore, bucket string, logger zerolog.Logger) *MinioArchiver {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &MinioArchiver{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "archive").Str("bucket", bucket).Logger(),
	}
}

// ObjectKey is refresh/YYYY/MM/DD/<id>.json, dated by completion time in UTC.
func ObjectKey(snap models.RefreshSnapshot) string {
	return fmt.Sprintf("refresh/%s/%s.json", snap.CompletedAt.UTC().Format("2006/01/02"), snap.ID)
}

// Archive stores snap under ObjectKey.
func (a *MinioArchiver) Archive(ctx context.Context, snap models.RefreshSnapshot) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("archive: failed to encode snapshot: %w", err)
	}

	key := ObjectKey(snap)
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive: failed to upload %s: %w", key, err)
	}

	a.logger.Debug().Str("key", info.Key).Int64("size", info.Size).Msg("refresh snapshot archived")
	return nil
}

func (a *MinioArchiver) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bucketReady {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("archive: failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("archive: failed to create bucket: %w", err)
		}
		a.logger.Info().Msg("created archive bucket")
	}

	a.bucketReady = true
	return nil
}
