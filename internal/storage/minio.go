package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Part size used for streamed uploads. minio-go otherwise sizes parts for a
// 5 TiB object when the length is unknown and buffers each one in memory.
// S3Client uses it for every multipart upload.
const streamPartSize = 16 << 20

// MinIOClient implements ObjectStorage using MinIO.
type MinIOClient struct {
	client     *minio.Client
	bucketName string
}

// MinIOConfig holds MinIO connection settings.
type MinIOConfig struct {
	Endpoint  string // host[:port], e.g. "s3.us-east-1.amazonaws.com"
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIOClient creates a new MinIO storage client. The bucket must exist.
func NewMinIOClient(ctx context.Context, cfg MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, &Error{Op: "bucket-exists", Key: cfg.Bucket, Err: err}
	}
	if !exists {
		return nil, &Error{Op: "bucket-exists", Key: cfg.Bucket, Err: ErrBucketNotFound}
	}

	return &MinIOClient{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Put streams reader into the bucket under key. size may be -1 when the
// length is not known up front; the upload then goes multipart.
func (m *MinIOClient) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	opts := minio.PutObjectOptions{ContentType: contentType(key)}
	if size < 0 {
		opts.PartSize = streamPartSize
	}
	if _, err := m.client.PutObject(ctx, m.bucketName, key, reader, size, opts); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
