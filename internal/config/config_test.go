package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.AppPort)
	assert.Equal(t, int64(1<<30), cfg.Storage.MaxUploadBytes, "default ceiling is 1GB")
	assert.Equal(t, 100, cfg.Auth.FileTokenTTLDays)
	assert.Equal(t, 5, cfg.Login.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Login.Window)
	assert.Equal(t, "audiowaveform", cfg.Storage.WaveformTool)
	assert.NotEmpty(t, cfg.Auth.TokenSecret, "development gets a fallback secret")
}

func TestLoad_ParsesHumanSizes(t *testing.T) {
	t.Setenv("MAX_UPLOAD_SIZE", "500MB")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "500MB", cfg.Storage.MaxUploadSize)
	assert.Equal(t, int64(500*1024*1024), cfg.Storage.MaxUploadBytes)
}

func TestLoad_RejectsBadSize(t *testing.T) {
	t.Setenv("MAX_UPLOAD_SIZE", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("TOKEN_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("TOKEN_SECRET", "a-real-secret-of-reasonable-length!!")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret-of-reasonable-length!!", cfg.Auth.TokenSecret)
}

func TestFileTokenTTL(t *testing.T) {
	assert.Equal(t, 2400*time.Hour, FileTokenTTL(100))
}
