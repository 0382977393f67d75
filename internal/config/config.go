package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret         string
	AdminUser         string
	AdminPasswordHash string
	AccessTokenTTL    time.Duration

	BillPageRows    int
	BillOrder       string
	SessionTTL      time.Duration
	SearchLimit     int
	SearchRateMax   int
	SearchRateWin   time.Duration
	InventoryTTL    time.Duration
	TranslitBaseURL string
	TranslitTimeout time.Duration
	TranslitRate    string
	TranslitTTL     time.Duration
	ExportDir       string
	ExportFontPath  string
	ExportLockTTL   time.Duration
	ExportStatusTTL time.Duration

	OTLPEndpoint  string
	TraceSampling float64
}

// Bill display order policies.
const (
	OrderNewestFirst = "newest-first"
	OrderOldestFirst = "oldest-first"
)

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:         k.String("JWT_SECRET"),
		AdminUser:         valueOrDefault(k.String("ADMIN_USER"), "admin"),
		AdminPasswordHash: k.String("ADMIN_PASSWORD_HASH"),
		AccessTokenTTL:    parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),

		BillPageRows:    intOrDefault(k.Int("BILL_PAGE_ROWS"), 23),
		BillOrder:       valueOrDefault(k.String("BILL_ORDER"), OrderNewestFirst),
		SessionTTL:      parseDuration(k.String("SESSION_TTL"), "168h"),
		SearchLimit:     intOrDefault(k.Int("SEARCH_RESULT_LIMIT"), 10),
		SearchRateMax:   intOrDefault(k.Int("SEARCH_RATE_MAX"), 30),
		SearchRateWin:   parseDuration(k.String("SEARCH_RATE_WINDOW"), "10s"),
		InventoryTTL:    parseDuration(k.String("INVENTORY_CACHE_TTL"), "5m"),
		TranslitBaseURL: valueOrDefault(k.String("TRANSLIT_BASE_URL"), "https://inputtools.google.com/request"),
		TranslitTimeout: parseDuration(k.String("TRANSLIT_TIMEOUT"), "3s"),
		TranslitRate:    valueOrDefault(k.String("TRANSLIT_RATE"), "30-M"),
		TranslitTTL:     parseDuration(k.String("TRANSLIT_CACHE_TTL"), "24h"),
		ExportDir:       valueOrDefault(k.String("EXPORT_DIR"), "exports"),
		ExportFontPath:  k.String("EXPORT_FONT_PATH"),
		ExportLockTTL:   parseDuration(k.String("EXPORT_LOCK_TTL"), "2m"),
		ExportStatusTTL: parseDuration(k.String("EXPORT_STATUS_TTL"), "24h"),

		OTLPEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampling: floatOrDefault(k.Float64("OTEL_TRACE_SAMPLING"), 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.BillPageRows < 1 {
		return nil, errors.New("BILL_PAGE_ROWS must be positive")
	}
	if cfg.BillOrder != OrderNewestFirst && cfg.BillOrder != OrderOldestFirst {
		return nil, fmt.Errorf("BILL_ORDER must be %q or %q", OrderNewestFirst, OrderOldestFirst)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
