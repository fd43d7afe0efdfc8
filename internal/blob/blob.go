// Package blob stores attachment payloads in an S3-compatible bucket.
// When no bucket is configured the store runs disabled and uploads
// degrade to a no-op, messages are still persisted without a blob ref.
package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chatrouter/chatrouter/internal/config"
	"github.com/chatrouter/chatrouter/internal/message"
)

// Store uploads attachment data to S3.
type Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// New builds the store from config. A custom endpoint with path-style
// addressing covers MinIO and other S3-compatible backends.
func New(ctx context.Context, log *slog.Logger, cfg config.BlobConfig) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("service", "blob"))

	store := &Store{bucket: cfg.Bucket, logger: logger}
	if cfg.Bucket == "" {
		logger.Warn("no bucket configured, attachment uploads are disabled")
		return store, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	logger.Info("blob store ready", slog.String("bucket", cfg.Bucket))
	return store, nil
}

// Enabled reports whether uploads will actually go anywhere.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// SaveBase64 decodes and uploads inline binary data for msg and returns
// the blob URI. A decode failure drops the payload and returns empty,
// the message survives without an attachment.
func (s *Store) SaveBase64(ctx context.Context, msg message.Message, data, extension string) string {
	if !s.Enabled() || data == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		s.logger.Error("failed to decode base64 payload, dropping attachment",
			slog.String("room_key", msg.RoomKey), slog.Any("error", err))
		return ""
	}

	uri, err := s.Save(ctx, msg, raw, extension)
	if err != nil {
		s.logger.Error("failed to upload attachment",
			slog.String("room_key", msg.RoomKey), slog.Any("error", err))
		return ""
	}
	return uri
}

// Save uploads raw attachment bytes under
// {platform}/{roomKey with ':' replaced}/{ts}.{ext}.
func (s *Store) Save(ctx context.Context, msg message.Message, raw []byte, extension string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	ext := extension
	if ext == "" {
		ext = defaultExtension(msg.ContentType)
	}

	roomKeySafe := strings.ReplaceAll(msg.RoomKey, ":", "_")
	key := fmt.Sprintf("%s/%s/%d.%s", msg.Platform, roomKeySafe, msg.TimestampMs, ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentTypeFor(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("attachment saved", slog.String("uri", uri), slog.Int("bytes", len(raw)))
	return uri, nil
}

func defaultExtension(ct message.ContentType) string {
	switch ct {
	case message.ContentImage:
		return "jpg"
	case message.ContentVideo:
		return "mp4"
	case message.ContentAudio:
		return "mp3"
	default:
		return "bin"
	}
}

func contentTypeFor(ext string) string {
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
