package fieldcipher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// maxKeyObjectSize bounds how much of the S3 object is read.
const maxKeyObjectSize = 4 * 1024

// objectGetter is the subset of the S3 client used here.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Source implements KeySource for reading key material from AWS S3.
type s3Source struct {
	client objectGetter
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3Source creates a new S3-based key source.
func NewS3Source(ctx context.Context, bucket, key, region string, logger zerolog.Logger) (KeySource, error) {
	logger = logger.With().Str("component", "s3-key-source").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 key source initialised")

	return newS3Source(s3.NewFromConfig(cfg), bucket, key, logger), nil
}

func newS3Source(client objectGetter, bucket, key string, logger zerolog.Logger) *s3Source {
	return &s3Source{
		client: client,
		bucket: bucket,
		key:    key,
		logger: logger,
	}
}

// Load fetches the key object and returns its trimmed content.
func (s *s3Source) Load(ctx context.Context) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", s.key).
			Msg("failed to get key object from S3")
		return "", fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, s.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxKeyObjectSize))
	if err != nil {
		return "", fmt.Errorf("failed to read S3 object %s: %w", s.key, err)
	}

	material := strings.TrimSpace(string(data))
	if material == "" {
		return "", fmt.Errorf("S3 object %s is empty", s.key)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", s.key).
		Msg("encryption key loaded from S3")

	return material, nil
}

// fallbackSource tries a primary source first, then a secondary one.
type fallbackSource struct {
	primary   KeySource
	secondary KeySource
	logger    zerolog.Logger
}

// NewFallbackSource creates a source that tries primary (typically S3) and
// falls back to secondary (typically a local file). A nil primary goes
// straight to secondary.
func NewFallbackSource(primary, secondary KeySource, logger zerolog.Logger) KeySource {
	return &fallbackSource{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-key-source").Logger(),
	}
}

// Load attempts the primary source, then the secondary.
func (s *fallbackSource) Load(ctx context.Context) (string, error) {
	if s.primary != nil {
		material, err := s.primary.Load(ctx)
		if err == nil {
			return material, nil
		}

		s.logger.Warn().
			Err(err).
			Msg("failed to load key from primary source, falling back")
	}

	return s.secondary.Load(ctx)
}
