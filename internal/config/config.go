// Package config loads service configuration from a TOML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "chatrouter"
	DefaultPGSSLMode     = "disable"
	DefaultRedisURL      = "redis://127.0.0.1:6379/0"
	DefaultJobStream     = "ai-processing-jobs"
	DefaultJobGroup      = "ai-workers"
	DefaultHistoryLimit  = 6
	DefaultMessageTTLSec = 86400
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Blob      BlobConfig      `toml:"blob"`
	Queue     QueueConfig     `toml:"queue"`
	Inference InferenceConfig `toml:"inference"`
	Platforms PlatformConfig  `toml:"platforms"`
	History   HistoryConfig   `toml:"history"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

type PostgresConfig struct {
	Host     string `toml:"host" validate:"required"`
	Port     int    `toml:"port" validate:"gt=0"`
	User     string `toml:"user" validate:"required"`
	Password string `toml:"password"`
	Database string `toml:"database" validate:"required"`
	SSLMode  string `toml:"sslmode"`
}

type RedisConfig struct {
	URL string `toml:"url" validate:"required"`
}

// BlobConfig configures the S3-compatible attachment store. An empty
// bucket disables uploads; messages then persist without a blob ref.
type BlobConfig struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKeyID  string `toml:"access_key_id"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

type QueueConfig struct {
	Stream   string `toml:"stream" validate:"required"`
	Group    string `toml:"group" validate:"required"`
	Consumer string `toml:"consumer"`
}

type InferenceConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gt=0"`
}

// PlatformConfig holds webhook signing secrets. An empty secret disables
// verification for that platform; the server logs the bypass at startup.
type PlatformConfig struct {
	SlackSigningSecret string `toml:"slack_signing_secret"`
	LineChannelSecret  string `toml:"line_channel_secret"`
	TeamsSecret        string `toml:"teams_secret"`
	CustomSecret       string `toml:"custom_secret"`
}

type HistoryConfig struct {
	Limit         int32 `toml:"limit" validate:"gt=0"`
	MessageTTLSec int64 `toml:"message_ttl_seconds" validate:"gt=0"`
}

// DSN returns a pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Signing secrets and API keys may be supplied via
// environment variables, which take precedence over the file.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Redis: RedisConfig{
			URL: DefaultRedisURL,
		},
		Queue: QueueConfig{
			Stream: DefaultJobStream,
			Group:  DefaultJobGroup,
		},
		Inference: InferenceConfig{
			TimeoutSeconds: 60,
		},
		History: HistoryConfig{
			Limit:         DefaultHistoryLimit,
			MessageTTLSec: DefaultMessageTTLSec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Platforms.SlackSigningSecret, "SLACK_SIGNING_SECRET")
	overrideString(&cfg.Platforms.LineChannelSecret, "LINE_CHANNEL_SECRET")
	overrideString(&cfg.Platforms.TeamsSecret, "TEAMS_SECRET")
	overrideString(&cfg.Platforms.CustomSecret, "CUSTOM_UI_SECRET")
	overrideString(&cfg.Inference.APIKey, "INFERENCE_API_KEY")
	overrideString(&cfg.Blob.AccessKeyID, "BLOB_ACCESS_KEY_ID")
	overrideString(&cfg.Blob.SecretKey, "BLOB_SECRET_KEY")
	overrideString(&cfg.Postgres.Password, "PGPASSWORD")
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
