// Package minio stores pendulum videos and the trace archives derived from them.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const archiveContentType = "application/zip"

// Storage reads uploaded videos from videoBucket and writes one zip per
// trace job (times, positions, quality factor, plots) to resultBucket.
type Storage struct {
	client       *miniogo.Client
	videoBucket  string
	resultBucket string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	VideoBucket  string
	ResultBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	if cfg.VideoBucket == "" || cfg.ResultBucket == "" {
		return nil, errors.New("minio: video and result buckets must be set")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:       client,
		videoBucket:  cfg.VideoBucket,
		resultBucket: cfg.ResultBucket,
	}, nil
}

// EnsureBuckets creates the video and trace buckets if they are missing.
func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.videoBucket, s.resultBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// DownloadVideo copies a source video to destPath. A key that does not exist
// is reported as entity.ErrSourceUnavailable since no retry can fix it.
func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	err := s.client.FGetObject(ctx, s.videoBucket, objectKey, destPath, miniogo.GetObjectOptions{})
	return classifyDownload(s.videoBucket, objectKey, err)
}

func classifyDownload(bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	switch miniogo.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: video %s/%s: %w", entity.ErrSourceUnavailable, bucket, key, err)
	}
	return fmt.Errorf("download video %s/%s: %w", bucket, key, err)
}

// UploadResult stores a trace archive under objectKey.
func (s *Storage) UploadResult(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.resultBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: archiveContentType,
	})
	if err != nil {
		return fmt.Errorf("upload trace archive %s/%s: %w", s.resultBucket, objectKey, err)
	}
	return nil
}
