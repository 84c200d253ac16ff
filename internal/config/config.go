// Package config loads process settings from the environment, optionally
// seeded from .env files in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the api and worker binaries read at start-up.
type Config struct {
	ServiceName string `validate:"required"`
	Port        string `validate:"required,numeric"`
	RunLocal    bool
	RunLambda   bool // api behind the Lambda adapter; needs reserved concurrency 1

	AWSRegion        string `validate:"required"`
	EndpointOverride string `validate:"omitempty,url"`

	AttachmentsBucket string `validate:"required"`
	AttachmentsFolder string
	MaxUploadMB       int64 `validate:"gt=0"`

	OrdersQueueURL  string `validate:"omitempty,url"`
	NotifyEmailFrom string `validate:"omitempty,email"`
	NotifyEmailTo   string `validate:"omitempty,email"`

	IdempotencyTable string
	IdempotencyTTL   time.Duration `validate:"gt=0"`

	MetricsNamespace string
}

// Defaults mirror the original deployment (port 10000, us-east-1).
const (
	defaultServiceName    = "orderdesk"
	defaultPort           = "10000"
	defaultRegion         = "us-east-1"
	defaultFolder         = "orders"
	defaultMaxUploadMB    = 100
	defaultIdempotencyTTL = 48 * time.Hour
)

// Load reads .env.local and .env when they exist (real environment variables
// win), then builds and validates a Config.
func Load() (Config, error) {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function; Load passes os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		ServiceName:       withDefault(getenv("SERVICE_NAME"), defaultServiceName),
		Port:              withDefault(getenv("PORT"), defaultPort),
		RunLocal:          getenv("RUN_LOCAL") == "true",
		RunLambda:         getenv("RUN_LAMBDA") == "true",
		AWSRegion:         withDefault(getenv("AWS_REGION"), defaultRegion),
		EndpointOverride:  getenv("AWS_ENDPOINT_OVERRIDE"),
		AttachmentsBucket: getenv("ATTACHMENTS_BUCKET"),
		AttachmentsFolder: withDefault(getenv("ATTACHMENTS_FOLDER"), defaultFolder),
		MaxUploadMB:       defaultMaxUploadMB,
		OrdersQueueURL:    getenv("ORDERS_QUEUE_URL"),
		NotifyEmailFrom:   getenv("NOTIFY_EMAIL_FROM"),
		NotifyEmailTo:     getenv("NOTIFY_EMAIL_TO"),
		IdempotencyTable:  getenv("IDEMPOTENCY_TABLE"),
		IdempotencyTTL:    defaultIdempotencyTTL,
		MetricsNamespace:  getenv("METRICS_NAMESPACE"),
	}

	if v := getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
		}
		cfg.MaxUploadMB = n
	}
	if v := getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if err := validatorv10.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MailEnabled reports whether both ends of the operator email are configured.
func (c Config) MailEnabled() bool {
	return c.NotifyEmailFrom != "" && c.NotifyEmailTo != ""
}

// MaxUploadBytes caps the size of a request body.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
