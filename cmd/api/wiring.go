package main

import (
	"context"
	"fmt"

	"qr-kitchen/internal/config"
	"qr-kitchen/internal/feed"
	"qr-kitchen/internal/fieldcipher"

	"github.com/rs/zerolog"
)

// keySource picks where the field encryption key comes from. An inline key
// wins; otherwise S3 is tried first with the key file as fallback. A nil
// source means none is configured.
func keySource(ctx context.Context, cfg config.EncryptionConfig, logger zerolog.Logger) (fieldcipher.KeySource, string, error) {
	if cfg.Key != "" {
		return fieldcipher.NewStaticSource(cfg.Key), "env", nil
	}

	var file fieldcipher.KeySource
	if cfg.KeyFile != "" {
		file = fieldcipher.NewFileSource(cfg.KeyFile, logger)
	}

	if !cfg.S3.Enabled {
		if file == nil {
			return nil, "", nil
		}
		return file, "file", nil
	}

	s3, err := fieldcipher.NewS3Source(ctx, cfg.S3.Bucket, cfg.S3.Key, cfg.S3.Region, logger)
	if err != nil {
		if file == nil {
			return nil, "", fmt.Errorf("failed to initialise S3 key source: %w", err)
		}
		logger.Warn().Err(err).Msg("failed to initialise S3 key source, using key file only")
		return file, "file", nil
	}

	if file == nil {
		return s3, "s3", nil
	}
	return fieldcipher.NewFallbackSource(s3, file, logger), "s3+file", nil
}

func buildCipher(ctx context.Context, cfg config.EncryptionConfig, logger zerolog.Logger) (*fieldcipher.Cipher, error) {
	src, name, err := keySource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if src == nil {
		if !cfg.Disabled {
			return nil, fmt.Errorf("field encryption key is not configured")
		}
		logger.Warn().Msg("field encryption disabled, customer fields are stored in plaintext")
		return fieldcipher.New("")
	}

	cipher, err := fieldcipher.NewFromSource(ctx, src)
	if err != nil {
		return nil, err
	}
	if !cipher.Enabled() {
		return nil, fmt.Errorf("field encryption key from %s is empty", name)
	}

	logger.Info().Str("key_source", name).Msg("field encryption enabled")
	return cipher, nil
}

// buildRelay connects the configured cross-instance relay. It returns a
// nil relay for single-instance deployments.
func buildRelay(ctx context.Context, cfg config.FeedConfig, logger zerolog.Logger) (feed.Relay, error) {
	switch cfg.Relay {
	case config.RelayRabbitMQ:
		relay, err := feed.NewAMQPRelay(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("exchange", cfg.RabbitMQExchange).Msg("change relay: rabbitmq")
		return relay, nil

	case config.RelayRedis:
		relay, err := feed.NewRedisRelay(ctx, cfg.RedisURL, cfg.RedisChannel, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("channel", cfg.RedisChannel).Msg("change relay: redis")
		return relay, nil

	default:
		logger.Info().Msg("change relay disabled, notifications stay in this instance")
		return nil, nil
	}
}
