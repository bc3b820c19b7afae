package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverSQL    = "sql"
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	// Application
	AppName    string
	AppEnv     string
	AppURL     string
	Port       string
	AppTagline string

	// Document store: "sql" (default), "mongo" or "memory"
	StoreDriver string
	// SQL backend (driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string
	// Mongo backend
	MongoURI      string
	MongoDatabase string

	// Session events (optional: Redis pub/sub, falls back to in-process bus)
	RedisURL     string
	RedisChannel string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Feed
	DefaultAvatarURL      string
	FeedLookupConcurrency int

	// Uploads
	UploadEndpoint string        // Optional: external blob upload endpoint, direct S3 upload when empty
	UploadTimeout  time.Duration // Timeout for one upload round trip
	UploadMaxBytes int64
	UploadToken    string // Optional: bearer token for non-browser callers of /api/upload and for upload.Client

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PublicURL string // Optional: CDN or public base URL for stored media
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:    envString("APP_NAME", "Theoryboard"),
		AppEnv:     envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:     envRequired("APP_URL"), // Required: base URL for OAuth redirects
		Port:       envString("PORT", "8090"),
		AppTagline: envString("APP_TAGLINE", "Share your theories"),

		// Document store
		StoreDriver:   envString("STORE_DRIVER", StoreDriverSQL),
		DBDriver:      envString("DB_DRIVER", "sqlite"),
		DBConnection:  envString("DB_CONNECTION", "./data/theoryboard.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),
		MongoURI:      envString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envString("MONGO_DATABASE", "theoryboard"),

		// Session events
		RedisURL:     envString("REDIS_URL", ""),
		RedisChannel: envString("REDIS_CHANNEL", "theoryboard:sessions"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     envString("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: envString("GITHUB_CLIENT_SECRET", ""),

		// Feed
		DefaultAvatarURL:      envString("DEFAULT_AVATAR_URL", "/default-avatar.png"),
		FeedLookupConcurrency: envInt("FEED_LOOKUP_CONCURRENCY", 16),

		// Uploads
		UploadEndpoint: envString("UPLOAD_ENDPOINT", ""),
		UploadTimeout:  envDuration("UPLOAD_TIMEOUT", 30*time.Second),
		UploadMaxBytes: int64(envInt("UPLOAD_MAX_MB", 20)) << 20,
		UploadToken:    envString("UPLOAD_TOKEN", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (S3-compatible - required for direct media uploads)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),   // Optional: for non-AWS providers
		S3PublicURL: envString("S3_PUBLIC_URL", ""), // Optional: defaults to the bucket URL
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks cross-field rules. Production additionally requires a strong JWT secret.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverSQL, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.UploadEndpoint == "" && c.S3Bucket == "" {
		return fmt.Errorf("either UPLOAD_ENDPOINT or S3_BUCKET must be set")
	}

	if c.FeedLookupConcurrency < 1 {
		return fmt.Errorf("FEED_LOOKUP_CONCURRENCY must be positive, got %d", c.FeedLookupConcurrency)
	}

	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("production deployment requires JWT_SECRET of at least 32 characters")
		}
		if c.StoreDriver == StoreDriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	}

	return nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:    c.AppName,
		AppEnv:     c.AppEnv,
		AppURL:     c.AppURL,
		Port:       c.Port,
		AppTagline: c.AppTagline,

		GoogleClientID: c.GoogleClientID,
		GitHubClientID: c.GitHubClientID,

		DefaultAvatarURL: c.DefaultAvatarURL,

		S3Endpoint:  c.S3Endpoint, // Needed for CSP policies
		S3PublicURL: c.S3PublicURL,
	}
}
