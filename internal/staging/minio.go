package staging

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Options configures the MinIO-backed stager.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
	Logger    zerolog.Logger
}

// MinIOStager stages assets in a MinIO bucket and hands out presigned GET
// URLs. Presigned URLs keep the bucket private while still being fetchable
// from the provider's network, which runs outside the caller's context.
type MinIOStager struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewMinIOStager(opts Options) (*MinIOStager, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinIOStager{
		client:    client,
		bucket:    opts.Bucket,
		urlExpiry: expiry,
		logger:    opts.Logger,
		now:       time.Now,
	}, nil
}

// Stage uploads the bytes under a unique time-suffixed object name and
// returns a presigned URL valid for longer than any single pipeline run.
func (s *MinIOStager) Stage(ctx context.Context, data []byte, contentType string) (*Asset, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	object := objectName(s.now(), contentType)
	_, err := s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", object, err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, object, s.urlExpiry, url.Values{})
	if err != nil {
		// The object made it up but is unusable without a URL; remove it so
		// it does not linger.
		s.remove(ctx, object)
		return nil, fmt.Errorf("presign %s: %w", object, err)
	}

	s.logger.Debug().Str("object", object).Msg("staging: uploaded")
	return &Asset{URL: presigned.String(), Bucket: s.bucket, Object: object}, nil
}

// Unstage deletes the staged object. Failures are logged only.
func (s *MinIOStager) Unstage(ctx context.Context, asset *Asset) {
	if asset == nil || asset.Object == "" {
		return
	}
	s.remove(ctx, asset.Object)
}

func (s *MinIOStager) remove(ctx context.Context, object string) {
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Warn().Err(err).Str("object", object).Msg("staging: delete failed")
		return
	}
	s.logger.Debug().Str("object", object).Msg("staging: deleted")
}

func (s *MinIOStager) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("bucket create: %w", err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("staging: bucket created")
	}
	return nil
}

// objectName builds a unique name so concurrent runs never collide.
func objectName(now time.Time, contentType string) string {
	return fmt.Sprintf("staged/%d-%s%s", now.UnixNano(), uuid.NewString()[:8], extForContentType(contentType))
}

func extForContentType(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/aac":
		return ".aac"
	case "audio/flac":
		return ".flac"
	default:
		return ".bin"
	}
}

var _ Stager = (*MinIOStager)(nil)
