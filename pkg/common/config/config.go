package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Clinic API
	ClinicAPIBaseURL      string
	ClinicAPITimeout      time.Duration
	ClinicAPITokenURL     string
	ClinicAPIClientID     string
	ClinicAPIClientSecret string
	ClinicAPIScopes       []string
	EnrichmentConcurrency int

	// Sessions
	SessionStore   string
	SessionTTL     time.Duration
	SessionLockTTL time.Duration
	SecureCookies  bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	AuditTopic   string
	KafkaGroupID string

	// Console
	Locale         string
	CatalogPath    string
	RateLimitRPS   int
	RateLimitBurst int

	// Stub backend
	StubPort string
	StubSeed int64
}

func Load() *Config {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		ClinicAPIBaseURL:      strings.TrimRight(getEnv("CLINIC_API_BASE_URL", "http://localhost:5000/api"), "/"),
		ClinicAPITimeout:      getDuration("CLINIC_API_TIMEOUT", 10*time.Second),
		ClinicAPITokenURL:     getEnv("CLINIC_API_TOKEN_URL", ""),
		ClinicAPIClientID:     getEnv("CLINIC_API_CLIENT_ID", ""),
		ClinicAPIClientSecret: getEnv("CLINIC_API_CLIENT_SECRET", ""),
		ClinicAPIScopes:       getStringSliceEnv("CLINIC_API_SCOPES", nil),
		EnrichmentConcurrency: getIntEnv("ENRICHMENT_CONCURRENCY", 4),

		SessionStore:   getEnv("SESSION_STORE", "memory"),
		SessionTTL:     getDuration("SESSION_TTL", 8*time.Hour),
		SessionLockTTL: getDuration("SESSION_LOCK_TTL", 30*time.Second),
		SecureCookies:  getEnv("SESSION_SECURE_COOKIES", "false") == "true",

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", nil),
		AuditTopic:   getEnv("AUDIT_TOPIC", "clinic.console.audit"),
		KafkaGroupID: getEnv("AUDIT_GROUP_ID", "clinic-audit-log"),

		Locale:         getEnv("CONSOLE_LOCALE", "bg"),
		CatalogPath:    getEnv("CONSOLE_CATALOG_PATH", ""),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		StubPort: getEnv("STUB_PORT", "5000"),
		StubSeed: int64(getIntEnv("STUB_SEED", 42)),
	}
}

// ClientCredentialsEnabled reports whether outbound clinic API calls should carry a bearer token.
func (c *Config) ClientCredentialsEnabled() bool {
	return c.ClinicAPITokenURL != "" && c.ClinicAPIClientID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
