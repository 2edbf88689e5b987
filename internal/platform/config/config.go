package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. All values come from the
// environment so main stays lean; defaults are suitable for development.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	// Enrollment provider (external LMS).
	EnrollmentBaseURL  string
	EnrollmentAPIKey   string
	EnrollmentTimeout  time.Duration
	EnrollmentCacheTTL time.Duration

	// Verification snapshots.
	SnapshotExpiry time.Duration
}

// RedisConfig holds tuning for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("TOOLGATE_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "toolgate"),
		JWTAudience:   envOr("JWT_AUDIENCE", "toolgate-api"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisURL:    os.Getenv("REDIS_URL"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:   envOr("AUDIT_TOPIC", "toolgate.activity"),

		EnrollmentBaseURL:  os.Getenv("ENROLLMENT_BASE_URL"),
		EnrollmentAPIKey:   os.Getenv("ENROLLMENT_API_KEY"),
		EnrollmentTimeout:  envDuration("ENROLLMENT_TIMEOUT", 3*time.Second),
		EnrollmentCacheTTL: envDuration("ENROLLMENT_CACHE_TTL", 2*time.Minute),

		SnapshotExpiry: envDuration("SNAPSHOT_EXPIRY", 0),
	}
}

// Redis derives the Redis client configuration.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
