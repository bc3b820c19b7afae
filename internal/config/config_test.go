package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AppEnv:                "development",
		StoreDriver:           StoreDriverSQL,
		JWTSecret:             "dev-secret",
		S3Bucket:              "theories",
		FeedLookupConcurrency: 4,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown store driver", mutate: func(c *Config) { c.StoreDriver = "dynamo" }, wantErr: "unknown STORE_DRIVER"},
		{name: "no upload target", mutate: func(c *Config) { c.S3Bucket = "" }, wantErr: "UPLOAD_ENDPOINT or S3_BUCKET"},
		{name: "external endpoint without bucket", mutate: func(c *Config) {
			c.S3Bucket = ""
			c.UploadEndpoint = "https://upload.example.com/api/upload"
		}},
		{name: "zero concurrency", mutate: func(c *Config) { c.FeedLookupConcurrency = 0 }, wantErr: "FEED_LOOKUP_CONCURRENCY"},
		{name: "production short secret", mutate: func(c *Config) { c.AppEnv = "production" }, wantErr: "JWT_SECRET"},
		{name: "production memory store", mutate: func(c *Config) {
			c.AppEnv = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
			c.StoreDriver = StoreDriverMemory
		}, wantErr: "not allowed in production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TB_INT", "12")
	t.Setenv("TB_BAD_INT", "twelve")
	t.Setenv("TB_DURATION", "90s")
	t.Setenv("TB_BAD_DURATION", "soon")

	assert.Equal(t, 12, envInt("TB_INT", 3))
	assert.Equal(t, 3, envInt("TB_BAD_INT", 3))
	assert.Equal(t, 3, envInt("TB_MISSING_INT", 3))
	assert.Equal(t, 90*time.Second, envDuration("TB_DURATION", time.Second))
	assert.Equal(t, time.Second, envDuration("TB_BAD_DURATION", time.Second))
	assert.Equal(t, "fallback", envString("TB_MISSING_STRING", "fallback"))
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.GoogleClientSecret = "google-secret"
	cfg.S3SecretKey = "s3-secret"
	cfg.UploadToken = "upload-secret"
	cfg.DefaultAvatarURL = "/default-avatar.png"

	safe := cfg.Sanitized()

	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.GoogleClientSecret)
	assert.Empty(t, safe.S3SecretKey)
	assert.Empty(t, safe.UploadToken)
	assert.Equal(t, "/default-avatar.png", safe.DefaultAvatarURL)
	assert.Equal(t, "development", safe.AppEnv)
}
