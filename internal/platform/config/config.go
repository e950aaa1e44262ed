package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "opsgate/pkg/platform/strings"
	"opsgate/pkg/platform/validation"
)

const (
	DefaultSignerKeysURL     = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	DefaultTokenIssuerPrefix = "https://securetoken.google.com/"
	DefaultAPIPrefix         = "/api"
	DefaultProtectedPrefixes = "/agents,/contexts,/reports,/crons,/system,/metrics"
)

// Config is the complete process configuration.
type Config struct {
	Server    Server
	Auth      Auth
	RateLimit RateLimit
	Budget    Budget
	Telemetry Telemetry
	Database  Database
	Redis     RedisConfig
	Logging   Logging
	Tracing   Tracing
	Gating    Gating
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	APIPrefix      string
	Version        string
	Environment    string
	TrustedProxies string
	RequestTimeout time.Duration
}

// Auth configures the shared secret and bearer token verification.
type Auth struct {
	SharedSecret           string
	ProjectID              string
	IssuerPrefix           string
	SignerKeysURL          string
	SignerKeysRefresh      time.Duration
	SignerKeysFetchTimeout time.Duration
}

// RateLimit configures the fixed-window limiter.
type RateLimit struct {
	Window          time.Duration
	Max             int
	Backend         string // "memory" or "redis"
	CleanupInterval time.Duration
}

// Budget configures the cost guard and the self-test routine.
type Budget struct {
	DailyMaxUSD       float64
	TestMaxUSD        float64
	TestRateLimit     int
	TestRateWindow    time.Duration
	TestTimeout       time.Duration
	TestBudgetTimeout time.Duration
}

// Telemetry configures the usage store queries and event log files.
type Telemetry struct {
	QueryTimeout  time.Duration
	EventLogPath  string
	SystemLogPath string
	RecentEvents  int
}

// Database holds the telemetry store connection settings.
type Database struct {
	URL string
}

// RedisConfig holds Redis connection settings for the distributed rate window.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Logging struct {
	Level  string
	Format string
}

type Tracing struct {
	OTLPEndpoint string
	ServiceName  string
}

// Gating configures which paths the pipeline protects.
type Gating struct {
	ProtectedPrefixes []string
	KillSwitchDefault bool
}

// FromEnv builds the configuration from environment variables. A .env file in
// the working directory is loaded first when present; real environment
// variables take precedence over it.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: Server{
			Addr:           net.JoinHostPort(getEnv("BIND_ADDRESS", "0.0.0.0"), getEnv("PORT", "3001")),
			APIPrefix:      normalizePrefix(getEnv("API_PREFIX", DefaultAPIPrefix)),
			Version:        getEnv("GATEWAY_VERSION", "1.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		Auth: Auth{
			SharedSecret:           firstEnv("INTERNAL_API_KEY", "API_KEY", "INTERNAL_KEY"),
			ProjectID:              firstEnv("FIREBASE_PROJECT_ID", "GCLOUD_PROJECT"),
			IssuerPrefix:           getEnv("TOKEN_ISSUER_PREFIX", DefaultTokenIssuerPrefix),
			SignerKeysURL:          getEnv("SIGNER_KEYS_URL", DefaultSignerKeysURL),
			SignerKeysRefresh:      getEnvDuration("SIGNER_KEYS_REFRESH", time.Hour),
			SignerKeysFetchTimeout: getEnvDuration("SIGNER_KEYS_FETCH_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimit{
			Window:          time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
			Max:             getEnvInt("RATE_LIMIT_MAX", 120),
			Backend:         strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute),
		},
		Budget: Budget{
			DailyMaxUSD:       getEnvFloat(firstSetKey("DAILY_MAX_USD", "MAX_DAILY_COST_USD"), 10),
			TestMaxUSD:        getEnvFloat("MAX_TEST_BUDGET_USD", 1.0),
			TestRateLimit:     getEnvInt("TEST_RATE_LIMIT", 3),
			TestRateWindow:    getEnvDuration("TEST_RATE_WINDOW", time.Hour),
			TestTimeout:       getEnvDuration("TEST_TIMEOUT", 30*time.Second),
			TestBudgetTimeout: getEnvDuration("TEST_BUDGET_TIMEOUT", 5*time.Second),
		},
		Telemetry: Telemetry{
			QueryTimeout:  getEnvDuration("TELEMETRY_QUERY_TIMEOUT", 3*time.Second),
			EventLogPath:  getEnv("EVENT_LOG_PATH", "logs/agents.log"),
			SystemLogPath: getEnv("SYSTEM_LOG_PATH", "logs/system.log"),
			RecentEvents:  getEnvInt("RECENT_EVENTS", 20),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Logging: Logging{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Tracing: Tracing{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "opsgate"),
		},
		Gating: Gating{
			ProtectedPrefixes: splitList(getEnv("PROTECTED_PREFIXES", DefaultProtectedPrefixes)),
			KillSwitchDefault: getEnvBool("AI_KILL_SWITCH", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the gates cannot operate with.
func (c *Config) Validate() error {
	var errs []error
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW_MS must be positive"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q must be memory or redis", c.RateLimit.Backend))
	}
	if c.RateLimit.Backend == "redis" && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis"))
	}
	if c.Budget.DailyMaxUSD < 0 || c.Budget.TestMaxUSD < 0 {
		errs = append(errs, errors.New("budget ceilings must not be negative"))
	}
	if c.Budget.TestRateLimit <= 0 {
		errs = append(errs, errors.New("TEST_RATE_LIMIT must be positive"))
	}
	if len(c.Gating.ProtectedPrefixes) == 0 {
		errs = append(errs, errors.New("PROTECTED_PREFIXES must not be empty"))
	}
	if err := validation.CheckSliceCount("PROTECTED_PREFIXES", len(c.Gating.ProtectedPrefixes), validation.MaxProtectedPrefixes); err != nil {
		errs = append(errs, err)
	}
	if err := validation.CheckEachStringLength("PROTECTED_PREFIXES entry", c.Gating.ProtectedPrefixes, validation.MaxPrefixLength); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProtectedPaths returns the protected prefixes joined with the API prefix.
func (c *Config) ProtectedPaths() []string {
	out := make([]string, 0, len(c.Gating.ProtectedPrefixes))
	for _, p := range c.Gating.ProtectedPrefixes {
		out = append(out, c.Server.APIPrefix+normalizePrefix(p))
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the value of the first non-empty variable in keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// firstSetKey returns the first key in keys that is set, or the first key.
func firstSetKey(keys ...string) string {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return k
		}
	}
	return keys[0]
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	return pstrings.DedupeAndTrim(strings.Split(raw, ","))
}

// normalizePrefix ensures a leading slash and strips a trailing one.
func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
