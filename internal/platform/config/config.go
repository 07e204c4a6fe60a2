package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr              string
	JWTSigningKey     string
	ExportTokenSecret string
	RedisURL          string
	DatabaseURL       string

	RateLimits RateLimits
	Export     Export
}

// RateLimits holds the per-scope fixed-window limits. Scopes never share
// counters; each has its own key prefix, limit and window.
type RateLimits struct {
	Write  Limit
	Auth   Limit
	Upload Limit
	Export Limit
}

// Limit is a single fixed-window limit definition.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Export holds the export pipeline ceilings.
type Export struct {
	// BufferedCap is the hard record cap for non-streamed exports.
	BufferedCap int
	// StreamPageSize is the fixed cursor-page size for streamed exports.
	StreamPageSize int
}

// RedisConfig carries connection tuning for the shared counter store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FIELDBOOK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	exportSecret := os.Getenv("EXPORT_TOKEN_SECRET")
	if exportSecret == "" {
		exportSecret = jwtSigningKey
	}

	return Server{
		Addr:              addr,
		JWTSigningKey:     jwtSigningKey,
		ExportTokenSecret: exportSecret,
		RedisURL:          os.Getenv("REDIS_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RateLimits: RateLimits{
			Write:  Limit{Requests: envInt("RATE_LIMIT_WRITE", 50), Window: time.Minute},
			Auth:   Limit{Requests: envInt("RATE_LIMIT_AUTH", 10), Window: time.Minute},
			Upload: Limit{Requests: envInt("RATE_LIMIT_UPLOAD", 10), Window: time.Minute},
			Export: Limit{Requests: envInt("RATE_LIMIT_EXPORT", 20), Window: time.Minute},
		},
		Export: Export{
			BufferedCap:    envInt("EXPORT_BUFFERED_CAP", 5000),
			StreamPageSize: envInt("EXPORT_STREAM_PAGE_SIZE", 500),
		},
	}
}

// Redis builds a Redis config from environment variables.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
