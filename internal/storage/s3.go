package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client implements ObjectStorage on top of the AWS SDK.
type S3Client struct {
	s3       *s3.Client
	bucket   string
	partSize int
}

// S3Config holds the settings of the AWS SDK backend.
type S3Config struct {
	Endpoint     string // full URL, e.g. "https://s3.us-east-005.backblazeb2.com"
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// NewS3Client creates an S3 client for an S3-compatible endpoint and checks
// that the bucket is reachable.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.UsePathStyle
		// Several S3-compatible providers reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	c := &S3Client{s3: client, bucket: cfg.Bucket, partSize: streamPartSize}
	if err := c.checkBucket(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *S3Client) checkBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		if isNotFoundError(err) {
			return &Error{Op: "bucket-exists", Key: c.bucket, Err: ErrBucketNotFound}
		}
		return &Error{Op: "bucket-exists", Key: c.bucket, Err: err}
	}
	return nil
}

// Put streams reader into the bucket under key. Objects that fit in one
// part go up with a single PutObject; larger ones, and those of unknown
// size (negative), are uploaded in parts so only one part is held in memory.
func (c *S3Client) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	if size >= 0 && size <= int64(c.partSize) {
		return c.putObject(ctx, key, reader, size)
	}

	buf := make([]byte, c.partSize)
	n, err := io.ReadFull(reader, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return c.putObject(ctx, key, bytes.NewReader(buf[:n]), int64(n))
	case err != nil:
		return &Error{Op: "put", Key: key, Err: err}
	}
	return c.putMultipart(ctx, key, reader, buf)
}

func (c *S3Client) putObject(ctx context.Context, key string, reader io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType(key)),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

// putMultipart uploads buf, which holds the first full part, followed by
// the rest of reader. A failed upload is aborted so no parts are left behind.
func (c *S3Client) putMultipart(ctx context.Context, key string, reader io.Reader, buf []byte) error {
	created, err := c.s3.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return &Error{Op: "create-multipart", Key: key, Err: err}
	}

	parts, err := c.uploadParts(ctx, key, created.UploadId, reader, buf)
	if err != nil {
		_, abortErr := c.s3.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(c.bucket),
			Key:      aws.String(key),
			UploadId: created.UploadId,
		})
		if abortErr != nil {
			slog.WarnContext(ctx, "abort multipart upload failed", "key", key, "error", abortErr)
		}
		return &Error{Op: "put", Key: key, Err: err}
	}

	_, err = c.s3.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		UploadId:        created.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return &Error{Op: "complete-multipart", Key: key, Err: err}
	}
	return nil
}

func (c *S3Client) uploadParts(ctx context.Context, key string, uploadID *string, reader io.Reader, buf []byte) ([]types.CompletedPart, error) {
	var parts []types.CompletedPart
	n := len(buf)
	for partNumber := int32(1); n > 0; partNumber++ {
		out, err := c.s3.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(c.bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			return nil, fmt.Errorf("upload part %d: %w", partNumber, err)
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})
		slog.DebugContext(ctx, "uploaded part", "key", key, "part", partNumber, "bytes", n)

		n, err = io.ReadFull(reader, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read part %d: %w", partNumber+1, err)
		}
	}
	return parts, nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services don't always map to the SDK types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
