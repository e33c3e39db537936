// Package config loads runtime settings from a .env file and the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/guarzo/hairtoolrank/internal/loader"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataEndpoint   string
	DefaultDataURL string
	RequestTimeout time.Duration
	FetchRPS       float64
	MaxRetries     int
	AffiliateTag   string

	CachePath string
	CacheTTL  time.Duration

	SQLitePath      string
	RefreshSchedule string

	Port           string
	Environment    string
	AllowedOrigins []string
}

// Load reads the .env file if present and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		DataEndpoint:   getEnv("DATA_ENDPOINT", ""),
		DefaultDataURL: getEnv("DEFAULT_DATA_URL", loader.DefaultDataURL),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 9000)) * time.Millisecond,
		FetchRPS:       getEnvFloat("FETCH_RPS", 2),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		AffiliateTag:   getEnv("AFFILIATE_TAG", pipeline.DefaultAffiliateTag),

		CachePath: getEnv("CACHE_PATH", "data/cache.json"),
		CacheTTL:  getEnvDuration("CACHE_TTL", 7*24*time.Hour),

		SQLitePath:      getEnv("SQLITE_PATH", "data/history.sqlite"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 6h"),

		Port:           getEnv("PORT", "8080"),
		Environment:    strings.ToLower(getEnv("ENVIRONMENT", "development")),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Loader returns the loader settings derived from c.
func (c *Config) Loader() loader.Config {
	lc := loader.DefaultConfig()
	lc.DataEndpoint = c.DataEndpoint
	lc.DefaultURL = c.DefaultDataURL
	if c.RequestTimeout > 0 {
		lc.Timeout = c.RequestTimeout
	}
	lc.RequestsPerSecond = c.FetchRPS
	lc.MaxRetries = c.MaxRetries
	lc.CacheTTL = c.CacheTTL
	return lc
}

// Pipeline returns the enrichment options derived from c.
func (c *Config) Pipeline() pipeline.Options {
	return pipeline.Options{AffiliateTag: c.AffiliateTag}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
