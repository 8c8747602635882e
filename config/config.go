package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	LogLevel    string
	FrontendURL string
	// Session storage: "memory" or "redis"
	SessionStore string
	SessionTTL   time.Duration
	// Cross-instance session lock, redis store only
	SessionLockTTL  time.Duration
	SessionLockWait time.Duration
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int
	// Upload Configuration
	MaxResumeBytes   int64
	MaxDocumentCount int
	// Swagger UI under /v1/swagger
	EnableSwagger bool
	// Double-submit CSRF check on form routes
	EnableCSRF   bool
	CookieSecure bool
	// Submission delivery: Postgres archive and hiring notification
	DatabaseURL   string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	HiringEmailTo string
	// Upload content storage (S3-compatible); empty bucket keeps metadata only
	S3Provider        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string
	// clamd address (host:port or socket path); empty disables scanning
	ClamAVAddress string
}

func LoadConfig() (*Config, error) {
	// Load .env file (only present locally; ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// Sessions
		SessionStore: strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionTTL:   getEnvDuration("SESSION_TTL", 2*time.Hour), // abandoned forms expire
		// Cross-instance session lock
		SessionLockTTL:  getEnvDuration("SESSION_LOCK_TTL", 15*time.Second),
		SessionLockWait: getEnvDuration("SESSION_LOCK_WAIT", 5*time.Second),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),    // 1 minute window
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 300), // form events are chatty
		// Uploads
		MaxResumeBytes:   int64(getEnvInt("MAX_RESUME_BYTES", 5<<20)), // 5 MB
		MaxDocumentCount: getEnvInt("MAX_DOCUMENT_COUNT", 10),
		EnableSwagger:    getEnvBool("ENABLE_SWAGGER", true),
		EnableCSRF:       getEnvBool("ENABLE_CSRF", true),
		CookieSecure:     getEnvBool("COOKIE_SECURE", os.Getenv("GIN_MODE") == "release"),
		// Submission delivery
		DatabaseURL: getEnv("DATABASE_URL", ""),
		// SMTP Configuration (Brevo)
		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		HiringEmailTo: getEnv("HIRING_EMAIL_TO", ""),
		ClamAVAddress: getEnv("CLAMAV_ADDRESS", ""),
		// Upload Storage
		S3Provider:        strings.ToLower(getEnv("S3_PROVIDER", "aws")),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("UPLOAD_BUCKET", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
	}

	if cfg.SessionStore == "redis" && cfg.UpstashRedisURL == "" {
		log.Println("WARNING: SESSION_STORE=redis but UPSTASH_REDIS_URL is not configured. Falling back to in-memory sessions.")
		cfg.SessionStore = "memory"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool accepts anything strconv.ParseBool does ("1", "true", "FALSE", ...)
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m") or plain seconds ("5400")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
