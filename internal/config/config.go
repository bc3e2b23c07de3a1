package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/labstack/gommon/bytes"
)

const (
	envEnvironment        = "APP_ENV"
	envAppPort            = "PORT"
	envStorePort          = "MEDIA_STORE_PORT"
	envServerReadTimeout  = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout = "SERVER_WRITE_TIMEOUT"
	envShutdownTimeout    = "SERVER_SHUTDOWN_TIMEOUT"
	envDatabaseURL        = "DATABASE_URL"
	envTokenSecret        = "TOKEN_SECRET"
	envSessionTTL         = "SESSION_TTL"
	envFileTokenTTLDays   = "FILE_TOKEN_TTL_DAYS"
	envStorageRoot        = "STORAGE_ROOT"
	envMaxUploadSize      = "MAX_UPLOAD_SIZE"
	envWaveformTool       = "WAVEFORM_TOOL"
	envWaveformTimeout    = "WAVEFORM_TIMEOUT"
	envMediaStoreURL      = "MEDIA_STORE_URL"
	envPublicBaseURL      = "PUBLIC_BASE_URL"
	envLoginWindow        = "LOGIN_RATE_WINDOW"
	envLoginMaxAttempts   = "LOGIN_RATE_MAX_ATTEMPTS"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultAppPort          = "3000"
	defaultStorePort        = "4000"
	defaultReadTimeout      = 30 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultSessionTTL       = 24 * time.Hour
	defaultFileTokenTTLDays = 100
	defaultStorageRoot      = "./uploads"
	defaultMaxUploadSize    = "1GB"
	defaultWaveformTool     = "audiowaveform"
	defaultWaveformTimeout  = 60 * time.Second
	defaultMediaStoreURL    = "http://localhost:4000"
	defaultPublicBaseURL    = "http://localhost:3000"
	defaultLoginWindow      = 60 * time.Second
	defaultLoginAttempts    = 5

	// devTokenSecret keeps local development working without a .env file.
	// Load refuses it outside development.
	devTokenSecret = "trackroom-dev-secret-do-not-use-in-prod"

	errTokenSecretRequiredFmt = "%s must be set when %s=%s"
	errInvalidUploadSizeFmt   = "invalid %s %q: %w"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Storage     StorageConfig
	Peer        PeerConfig
	Login       LoginConfig
}

type ServerConfig struct {
	AppPort         string
	StorePort       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	TokenSecret      string
	SessionTTL       time.Duration
	FileTokenTTLDays int
}

type StorageConfig struct {
	Root string
	// MaxUploadSize is the human-readable ceiling ("500MB", "1GB"); used
	// verbatim by the upload body limit middleware.
	MaxUploadSize string
	// MaxUploadBytes is MaxUploadSize parsed to a byte count.
	MaxUploadBytes  int64
	WaveformTool    string
	WaveformTimeout time.Duration
}

type PeerConfig struct {
	MediaStoreURL string
	PublicBaseURL string
}

type LoginConfig struct {
	Window      time.Duration
	MaxAttempts int
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv(envEnvironment, EnvDevelopment),
		Server: ServerConfig{
			AppPort:         getEnv(envAppPort, defaultAppPort),
			StorePort:       getEnv(envStorePort, defaultStorePort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultWriteTimeout),
			ShutdownTimeout: getDurationEnv(envShutdownTimeout, defaultShutdownTimeout),
		},
		Database: DatabaseConfig{
			URL: getEnv(envDatabaseURL, ""),
		},
		Auth: AuthConfig{
			TokenSecret:      getEnv(envTokenSecret, ""),
			SessionTTL:       getDurationEnv(envSessionTTL, defaultSessionTTL),
			FileTokenTTLDays: getIntEnv(envFileTokenTTLDays, defaultFileTokenTTLDays),
		},
		Storage: StorageConfig{
			Root:            getEnv(envStorageRoot, defaultStorageRoot),
			MaxUploadSize:   getEnv(envMaxUploadSize, defaultMaxUploadSize),
			WaveformTool:    getEnv(envWaveformTool, defaultWaveformTool),
			WaveformTimeout: getDurationEnv(envWaveformTimeout, defaultWaveformTimeout),
		},
		Peer: PeerConfig{
			MediaStoreURL: getEnv(envMediaStoreURL, defaultMediaStoreURL),
			PublicBaseURL: getEnv(envPublicBaseURL, defaultPublicBaseURL),
		},
		Login: LoginConfig{
			Window:      getDurationEnv(envLoginWindow, defaultLoginWindow),
			MaxAttempts: getIntEnv(envLoginMaxAttempts, defaultLoginAttempts),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxBytes, err := bytes.Parse(cfg.Storage.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf(errInvalidUploadSizeFmt, envMaxUploadSize, cfg.Storage.MaxUploadSize, err)
	}
	cfg.Storage.MaxUploadBytes = maxBytes

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenSecret == "" {
		// A missing secret must never silently disable verification:
		// production refuses to start, development gets a fixed default.
		if c.Environment == EnvProduction {
			return fmt.Errorf(errTokenSecretRequiredFmt, envTokenSecret, envEnvironment, EnvProduction)
		}
		c.Auth.TokenSecret = devTokenSecret
	}
	return nil
}

// FileTokenTTL converts the capability lifetime in days to a duration.
func FileTokenTTL(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
