package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration assembled from the environment so main
// stays lean. Every field has a usable default; absent stores and keys degrade
// the service instead of failing startup.
type Config struct {
	Server       Server
	Redis        RedisConfig
	Postgres     PostgresConfig
	Verification VerificationConfig
	Results      ResultsConfig
	Loads        LoadsConfig
	Kafka        KafkaConfig
	LogLevel     string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis result backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres result backend.
type PostgresConfig struct {
	URL      string
	MaxConns int32
}

// VerificationConfig configures the FMCSA registry client.
type VerificationConfig struct {
	WebKey     string
	BaseURL    string
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

// Result backends accepted by RESULTS_BACKEND.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// ResultsConfig configures result persistence.
type ResultsConfig struct {
	Backend       string
	TTL           time.Duration
	PurgeInterval time.Duration
}

// LoadsConfig configures the static load source and matching.
type LoadsConfig struct {
	Path        string
	MatchLimit  int
	MatchPolicy string
	SourceTag   string
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Defaults mirror the deployment constraints: the registry timeout stays under a
// 29s gateway limit, so retries are off unless explicitly enabled.
const (
	DefaultFMCSABaseURL = "https://mobile.fmcsa.dot.gov/qc/services"
	DefaultFMCSATimeout = 28 * time.Second
	DefaultFMCSABackoff = 750 * time.Millisecond
	DefaultResultTTL    = 24 * time.Hour
	DefaultMatchLimit   = 3
)

// FromEnv builds the Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:            getenv("CARRIERCHECK_ADDR", ":8080"),
			ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT_SECONDS", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT_SECONDS", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT_SECONDS", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
			MaxConns: int32(getenvInt("DATABASE_MAX_CONNS", 10)),
		},
		Verification: VerificationConfig{
			WebKey:     strings.TrimSpace(os.Getenv("FMCSA_WEBKEY")),
			BaseURL:    strings.TrimRight(getenv("FMCSA_BASE_URL", DefaultFMCSABaseURL), "/"),
			MaxRetries: getenvInt("FMCSA_MAX_RETRIES", 0),
			Backoff:    getenvDuration("FMCSA_BACKOFF_SECONDS", DefaultFMCSABackoff),
			Timeout:    getenvDuration("FMCSA_TIMEOUT_SECONDS", DefaultFMCSATimeout),
		},
		Results: ResultsConfig{
			Backend:       strings.ToLower(strings.TrimSpace(os.Getenv("RESULTS_BACKEND"))),
			TTL:           getenvDuration("RESULT_TTL_SECONDS", DefaultResultTTL),
			PurgeInterval: getenvDuration("RESULT_PURGE_INTERVAL_SECONDS", 10*time.Minute),
		},
		Loads: LoadsConfig{
			Path:        getenv("LOADS_PATH", "data/loads.json"),
			MatchLimit:  getenvInt("MATCH_LIMIT", DefaultMatchLimit),
			MatchPolicy: strings.ToLower(getenv("MATCH_POLICY", "exact")),
			SourceTag:   getenv("LOADS_SOURCE_TAG", "fake_loads_file"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_AUDIT_TOPIC", "carriercheck.audit"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	cfg.Results.Backend = resolveBackend(cfg)
	return cfg
}

// resolveBackend picks a result backend when RESULTS_BACKEND is unset: the first
// configured store wins, otherwise persistence is disabled.
func resolveBackend(cfg Config) string {
	if cfg.Results.Backend != "" {
		return cfg.Results.Backend
	}
	switch {
	case cfg.Redis.URL != "":
		return BackendRedis
	case cfg.Postgres.URL != "":
		return BackendPostgres
	default:
		return BackendNone
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getenvDuration reads a value expressed in (possibly fractional) seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
