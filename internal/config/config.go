package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Hybrid   HybridConfig
	Geocoder GeocoderConfig
	Search   SearchConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	LogLevel    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	QueryTimeout        time.Duration
	PoolMaxConns        int32
	PoolMinConns        int32
	PoolMaxConnLifetime time.Duration
	PoolMaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type HybridConfig struct {
	// PrimaryURL is the search-optimized host, SecondaryURL the
	// general-purpose one. Empty URLs disable the hybrid tier.
	PrimaryURL   string
	SecondaryURL string
	// Force attempts the hybrid tier even for queries without filter intent.
	Force    bool
	Cooldown time.Duration
	Timeout  time.Duration
}

type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SearchConfig struct {
	MaxPageSize int
	// WindowCeiling caps the recency window inspected by the strict
	// fallback, regardless of the requested page.
	WindowCeiling   int
	CacheTTL        time.Duration
	DiagnosticsGap  time.Duration
	DefaultPageSize int
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, fallback string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		return v
	}
	optInt := func(key string, fallback int) int {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		return n
	}
	optSeconds := func(key string, fallback time.Duration) time.Duration {
		n := optInt(key, int(fallback/time.Second))
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Second
	}
	optBool := func(key string) bool {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		return v == "1" || v == "true" || v == "yes"
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		LogLevel:    opt("LOG_LEVEL", "info"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:              opt("DB_HOST", "localhost"),
		DBPort:              opt("DB_PORT", "5432"),
		DBName:              opt("DB_NAME", ""),
		DBUser:              opt("DB_USER", ""),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBSSLMode:           opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:      optSeconds("DB_CONNECT_TIMEOUT_SECONDS", 5*time.Second),
		QueryTimeout:        optSeconds("DB_QUERY_TIMEOUT_SECONDS", 8*time.Second),
		PoolMaxConns:        int32(optInt("DB_POOL_MAX_CONNS", 8)),
		PoolMinConns:        int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime: optSeconds("DB_POOL_MAX_CONN_LIFETIME_SECONDS", 30*time.Minute),
		PoolMaxConnIdleTime: optSeconds("DB_POOL_MAX_CONN_IDLE_SECONDS", 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}

	cfg.Hybrid = HybridConfig{
		PrimaryURL:   opt("HYBRID_PRIMARY_URL", ""),
		SecondaryURL: opt("HYBRID_SECONDARY_URL", ""),
		Force:        optBool("HYBRID_FORCE"),
		Cooldown:     optSeconds("HYBRID_COOLDOWN_SECONDS", 120*time.Second),
		Timeout:      optSeconds("HYBRID_TIMEOUT_SECONDS", 6*time.Second),
	}

	cfg.Geocoder = GeocoderConfig{
		BaseURL: opt("GEOCODER_URL", ""),
		Timeout: optSeconds("GEOCODER_TIMEOUT_SECONDS", 3*time.Second),
	}

	cfg.Search = SearchConfig{
		MaxPageSize:     optInt("SEARCH_MAX_PAGE_SIZE", 200),
		WindowCeiling:   optInt("SEARCH_WINDOW_CEILING", 400),
		CacheTTL:        optSeconds("SEARCH_CACHE_TTL_SECONDS", 60*time.Second),
		DiagnosticsGap:  optSeconds("SEARCH_DIAGNOSTICS_GAP_SECONDS", 30*time.Second),
		DefaultPageSize: optInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}
