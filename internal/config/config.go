package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Relay kinds for cross-instance change notifications.
const (
	RelayNone     = "none"
	RelayRabbitMQ = "rabbitmq"
	RelayRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Encryption EncryptionConfig
	Feed       FeedConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer credential settings.
type AuthConfig struct {
	TokenValidity    time.Duration
	FallbackTenantID int64
}

// EncryptionConfig says where the field encryption key comes from.
// Key wins over KeyFile; S3 is tried before KeyFile when enabled.
type EncryptionConfig struct {
	Key      string
	KeyFile  string
	S3       S3Config
	Disabled bool
}

// S3Config locates an encryption key object in AWS S3.
type S3Config struct {
	Enabled bool
	Bucket  string
	Key     string
	Region  string
}

// FeedConfig holds live sync settings.
type FeedConfig struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	RetryHint         time.Duration
	Relay             string
	RabbitMQURL       string
	RabbitMQExchange  string
	RedisURL          string
	RedisChannel      string
}

// Load loads configuration from environment variables, after reading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "qrkitchen"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			TokenValidity:    getEnvAsDuration("AUTH_TOKEN_VALIDITY", 7*24*time.Hour),
			FallbackTenantID: int64(getEnvAsInt("AUTH_FALLBACK_TENANT_ID", 1)),
		},
		Encryption: EncryptionConfig{
			Key:     getEnv("FIELD_ENCRYPTION_KEY", ""),
			KeyFile: getEnv("FIELD_ENCRYPTION_KEY_FILE", ""),
			S3: S3Config{
				Enabled: getEnvAsBool("FIELD_ENCRYPTION_S3_ENABLED", false),
				Bucket:  getEnv("FIELD_ENCRYPTION_S3_BUCKET", ""),
				Key:     getEnv("FIELD_ENCRYPTION_S3_KEY", "keys/field.key"),
				Region:  getEnv("FIELD_ENCRYPTION_S3_REGION", "eu-west-3"),
			},
			Disabled: getEnvAsBool("FIELD_ENCRYPTION_DISABLED", false),
		},
		Feed: FeedConfig{
			PollInterval:      getEnvAsDuration("FEED_POLL_INTERVAL", 2*time.Second),
			HeartbeatInterval: getEnvAsDuration("FEED_HEARTBEAT_INTERVAL", 500*time.Millisecond),
			RetryHint:         getEnvAsDuration("FEED_RETRY_HINT", 5*time.Second),
			Relay:             getEnv("FEED_RELAY", RelayNone),
			RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
			RabbitMQExchange:  getEnv("RABBITMQ_EXCHANGE", "order_changes"),
			RedisURL:          getEnv("REDIS_URL", ""),
			RedisChannel:      getEnv("REDIS_CHANNEL", "order_changes"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Auth.TokenValidity <= 0 {
		return fmt.Errorf("auth token validity must be positive")
	}

	if c.Auth.FallbackTenantID < 1 {
		return fmt.Errorf("fallback tenant id must be at least 1")
	}

	if err := c.Encryption.validate(); err != nil {
		return err
	}

	return c.Feed.validate()
}

func (c *EncryptionConfig) validate() error {
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 key source is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 key source is enabled")
		}
	}

	if !c.Configured() && !c.Disabled {
		return fmt.Errorf("field encryption key is required (set FIELD_ENCRYPTION_DISABLED=true to store customer fields in plaintext)")
	}

	return nil
}

// Configured reports whether any key source is set.
func (c *EncryptionConfig) Configured() bool {
	return c.Key != "" || c.KeyFile != "" || c.S3.Enabled
}

func (c *FeedConfig) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("feed poll interval must be positive")
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("feed heartbeat interval must be positive")
	}

	switch c.Relay {
	case RelayNone:
	case RelayRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RabbitMQ URL is required when relay is rabbitmq")
		}
	case RelayRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when relay is redis")
		}
	default:
		return fmt.Errorf("invalid feed relay: %s (must be none, rabbitmq, or redis)", c.Relay)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("2s", "500ms").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
