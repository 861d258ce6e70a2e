package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	Env        string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret string

	// IdentityAPIURL is the base URL of the remote identity service that owns
	// user accounts. This service only consumes its API, it never stores
	// passwords itself.
	IdentityAPIURL string

	// MediaUploadURL is the media host endpoint the upload relay forwards to.
	// MediaAPIKey stays server-side; browsers never talk to the host directly.
	MediaUploadURL string
	MediaAPIKey    string

	CookieSecure bool
	SessionTTL   time.Duration

	MaxUploadBytes     int64
	UploadMaxAttempts  int
	UploadRetryBackoff time.Duration

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	env := getEnv("ENV", "development")
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Env:        env,

		MySQLDSN:  getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/tripdesk?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		IdentityAPIURL: getEnv("IDENTITY_API_URL", "https://api.tripdesk.example.com"),
		MediaUploadURL: getEnv("MEDIA_UPLOAD_URL", "https://media.tripdesk.example.com/v1/upload"),
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),

		CookieSecure: getEnvBool("COOKIE_SECURE", env == "production"),
		SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,

		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 5)) << 20,
		UploadMaxAttempts:  getEnvInt("UPLOAD_MAX_ATTEMPTS", 3),
		UploadRetryBackoff: time.Duration(getEnvInt("UPLOAD_RETRY_BACKOFF_MS", 500)) * time.Millisecond,

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
