package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3 stores uploads in one MinIO/S3 bucket. Locations look like s3://<bucket>/<name>.
type S3 struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger
}

// NewS3 creates a MinIO client from cfg.
func NewS3(cfg S3Config, logger *slog.Logger) (*S3, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage needs an endpoint and a bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3{client: client, bucket: cfg.Bucket, region: cfg.Region, logger: logger}, nil
}

// EnsureBucket makes sure the bucket exists before use.
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("storage.s3.bucket_created", "bucket", s.bucket)
	}
	return nil
}

func (s *S3) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	s.logger.Debug("storage.s3.saved", "bucket", s.bucket, "key", name, "bytes", len(data))
	return s.Location(name), nil
}

func (s *S3) Read(ctx context.Context, location string) ([]byte, error) {
	key, err := s.key(location)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return buf, nil
}

func (s *S3) Delete(ctx context.Context, location string) error {
	key, err := s.key(location)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// Location is the stored path recorded for an object.
func (s *S3) Location(name string) string {
	return "s3://" + s.bucket + "/" + name
}

func (s *S3) key(location string) (string, error) {
	prefix := "s3://" + s.bucket + "/"
	key, ok := strings.CutPrefix(location, prefix)
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", fmt.Errorf("location %q is not in bucket %s", location, s.bucket)
	}
	return key, nil
}
