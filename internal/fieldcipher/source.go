package fieldcipher

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// staticSource returns key material held in configuration.
type staticSource struct {
	material string
}

// NewStaticSource creates a source for key material given inline, usually
// from an environment variable.
func NewStaticSource(material string) KeySource {
	return &staticSource{material: material}
}

// Load returns the configured material.
func (s *staticSource) Load(ctx context.Context) (string, error) {
	return s.material, nil
}

// fileSource implements KeySource for reading a key file from disk.
type fileSource struct {
	path   string
	logger zerolog.Logger
}

// NewFileSource creates a new file-based key source.
func NewFileSource(path string, logger zerolog.Logger) KeySource {
	return &fileSource{
		path:   path,
		logger: logger.With().Str("component", "key-file-source").Logger(),
	}
}

// Load reads the key file and returns its trimmed content.
func (s *fileSource) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", s.path).Msg("failed to read key file")
		return "", fmt.Errorf("failed to read key file %s: %w", s.path, err)
	}

	material := strings.TrimSpace(string(data))
	if material == "" {
		return "", fmt.Errorf("key file %s is empty", s.path)
	}

	s.logger.Info().Str("file", s.path).Msg("encryption key loaded from file")

	return material, nil
}
