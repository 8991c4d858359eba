package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is built once in main and
// passed into the components that need it; nothing reads the environment
// after startup.
type Config struct {
	Env        string // "development" or "production"
	ServerPort string
	CORSOrigin string

	DatabasePath string

	AdminUsername     string
	AdminPassword     string // plaintext fallback, development only
	AdminPasswordHash string // bcrypt hash; takes precedence when set
	AuthSecret        string // HMAC key for session tokens

	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	UploadDir              string // local fallback when Cloudinary is not configured

	LowStockCron string
}

// DevAuthSecret is the development-only signing key used when AUTH_SECRET is
// unset. Production refuses to start without an explicit secret.
const DevAuthSecret = "dev-secret-do-not-use-in-production"

// Load loads configuration from environment variables or sets defaults.
// A .env file is picked up when present, as a development convenience.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getEnv("APP_ENV", "development"),
		ServerPort: getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),

		DatabasePath: getEnv("DATABASE_PATH", "./shopadmin.db"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AuthSecret:        os.Getenv("AUTH_SECRET"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		UploadDir:              getEnv("UPLOAD_DIR", "./uploads"),

		LowStockCron: getEnv("LOW_STOCK_CRON", "@every 10m"),
	}

	if cfg.AuthSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("AUTH_SECRET must be set in production")
		}
		cfg.AuthSecret = DevAuthSecret
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies, mandatory signing secret).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
