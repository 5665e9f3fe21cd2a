package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("META_WHATSAPP_ACCESS_TOKEN", "EAAG-token")
	t.Setenv("META_WHATSAPP_PHONE_NUMBER_ID", "123456789012345")
	t.Setenv("META_WHATSAPP_TOKEN_CODE", "verify-me")
	t.Setenv("JWT_SECRET", "not-for-prod")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "metapython.db", cfg.SQLitePath)
	assert.Equal(t, "v19.0", cfg.APIVersion)
	assert.Equal(t, "https://graph.facebook.com", cfg.GraphBaseURL)
	assert.Equal(t, 1024, cfg.AuditQueueSize)
	assert.Equal(t, 5*time.Second, cfg.MirrorFlushWait)
	assert.Equal(t, 50, cfg.MirrorBatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.MirrorEnabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_WHATSAPP_VERSION", "v20.0")
	t.Setenv("AUDIT_QUEUE_SIZE", "16")
	t.Setenv("MIRROR_FLUSH_WAIT_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "v20.0", cfg.APIVersion)
	assert.Equal(t, 16, cfg.AuditQueueSize)
	assert.Equal(t, 250*time.Millisecond, cfg.MirrorFlushWait)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("META_WHATSAPP_TOKEN_CODE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "META_WHATSAPP_TOKEN_CODE")
}

func TestLoadBadIntFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("AUDIT_QUEUE_SIZE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.AuditQueueSize)
}

func TestMirrorEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("EXPORT_S3_ENDPOINT", "https://accountid.r2.cloudflarestorage.com")
	t.Setenv("EXPORT_S3_BUCKET", "bot-exports")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MirrorEnabled())
	assert.Equal(t, "exports/conversaciones.csv", cfg.ExportObjectKey)
}
