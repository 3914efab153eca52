package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// App
	AppName string
	Env     string
	Port    string
	// AppURL is the public base URL used in links sent to users. It only
	// falls back to localhost when no deployment URL is configured.
	AppURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT: distinct keys per token kind so a leaked access key cannot
	// mint refresh tokens and vice versa.
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Security
	BcryptCost int

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration

	// CORS
	CORSOrigins string

	// SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Uploads
	UploadDir        string
	MaxUploadSize    int64
	AllowedFileTypes []string

	// Logging
	LogLevel string
}

func Load() *Config {
	port := getEnv("PORT", "8080")
	return &Config{
		AppName: getEnv("APP_NAME", "pos-backend"),
		Env:     getEnv("APP_ENV", "development"),
		Port:    port,
		AppURL:  strings.TrimRight(getEnv("APP_URL", "http://localhost:"+port), "/"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pos_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		BcryptCost: parseInt(getEnv("BCRYPT_COST", "10"), 10),

		RateLimitMax:    parseInt(getEnv("RATE_LIMIT_MAX", "100"), 100),
		RateLimitWindow: parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"), 15*time.Minute),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: parseInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", "POS Backend <noreply@localhost>"),

		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSize:    parseInt64(getEnv("MAX_UPLOAD_SIZE", "5242880"), 5<<20),
		AllowedFileTypes: splitCSV(getEnv("ALLOWED_FILE_TYPES", "image/jpeg,image/png,image/gif,application/pdf")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects configurations that cannot produce a working auth path.
// The two JWT secrets must be set and must differ, otherwise the access and
// refresh audiences collapse into one.
func (c *Config) Validate() error {
	if c.JWTAccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET is required")
	}
	if c.JWTRefreshSecret == "" {
		return errors.New("JWT_REFRESH_SECRET is required")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.DBName == "" {
		return errors.New("DB_NAME is required")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
