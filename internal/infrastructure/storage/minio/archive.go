// Package minio archives the raw text of analyzed prescriptions in object
// storage for audit and model retraining.
package minio

import (
	"context"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Archive implements the application-layer Archiver on MinIO/S3.
type Archive struct {
	client *miniogo.Client
	bucket string
	logger logging.Logger
}

// NewArchive connects to the object store and ensures the bucket exists.
func NewArchive(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Archive, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeBadRequest, "minio endpoint not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "create minio client")
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "check archive bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExternalService, "create archive bucket")
		}
	}
	return &Archive{client: client, bucket: cfg.Bucket, logger: logger.Named("minio")}, nil
}

// ArchiveText stores one raw-text object under objectName.
func (a *Archive) ArchiveText(ctx context.Context, objectName, text string) error {
	reader := strings.NewReader(text)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, reader, int64(reader.Len()),
		miniogo.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "put archive object")
	}
	return nil
}
