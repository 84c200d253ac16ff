package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"ATTACHMENTS_BUCKET": "legal-docs"}))
	require.NoError(t, err)

	assert.Equal(t, "orderdesk", cfg.ServiceName)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "orders", cfg.AttachmentsFolder)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.RunLocal)
	assert.False(t, cfg.RunLambda, "the HTTP server is the default api mode")
	assert.False(t, cfg.MailEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"ATTACHMENTS_BUCKET":    "legal-docs",
		"PORT":                  "8080",
		"RUN_LOCAL":             "true",
		"RUN_LAMBDA":            "true",
		"AWS_ENDPOINT_OVERRIDE": "http://localhost:4566",
		"MAX_UPLOAD_MB":         "5",
		"IDEMPOTENCY_TTL":       "1h",
		"NOTIFY_EMAIL_FROM":     "desk@example.com",
		"NOTIFY_EMAIL_TO":       "ops@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.RunLocal)
	assert.True(t, cfg.RunLambda)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.MailEnabled())
}

func TestFromEnv_MissingBucket(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AttachmentsBucket")
}

func TestFromEnv_BadValues(t *testing.T) {
	base := map[string]string{"ATTACHMENTS_BUCKET": "b"}

	for name, kv := range map[string][2]string{
		"upload size": {"MAX_UPLOAD_MB", "lots"},
		"ttl":         {"IDEMPOTENCY_TTL", "forever"},
		"email":       {"NOTIFY_EMAIL_TO", "not-an-address"},
		"port":        {"PORT", "http"},
	} {
		t.Run(name, func(t *testing.T) {
			env := map[string]string{kv[0]: kv[1]}
			for k, v := range base {
				env[k] = v
			}
			_, err := FromEnv(envOf(env))
			require.Error(t, err)
		})
	}
}
