package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "growth-scraper/pkg/errors"
)

// DefaultTargetURL is the listing page scraped when TARGET_URL is unset.
const DefaultTargetURL = "https://www.gsuplementos.com.br/lancamentos"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TargetURL         string
	SelectorsFile     string
	MaxItems          int
	CollectTimeout    time.Duration
	MaxRetries        int
	ChromeBin         string
	Headless          bool
	DegradedThreshold float64

	RawPath   string
	CleanPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	CacheBackend string
	RedisAddr    string
	RedisDB      int
	CacheTTL     time.Duration

	HTTPAddr string
	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		TargetURL:         getEnv("TARGET_URL", DefaultTargetURL),
		SelectorsFile:     getEnv("SELECTORS_FILE", ""),
		MaxItems:          getEnvInt("MAX_ITEMS", 30),
		CollectTimeout:    time.Duration(getEnvInt("COLLECT_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		Headless:          getEnvBool("HEADLESS", true),
		DegradedThreshold: getEnvFloat("DEGRADED_THRESHOLD", 0.5),

		RawPath:   getEnv("RAW_PATH", "./basesoriginais/Growth_dados.csv"),
		CleanPath: getEnv("CLEAN_PATH", "./basestratadas/Growth_dados.csv"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "growth"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		CacheTTL:     time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,

		HTTPAddr: getEnv("HTTP_ADDR", ":5001"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return apperrors.NewConfiguration("TARGET_URL must not be empty", nil)
	}
	if c.MaxItems <= 0 {
		return apperrors.NewConfiguration(fmt.Sprintf("MAX_ITEMS must be positive, got %d", c.MaxItems), nil)
	}
	if c.CollectTimeout <= 0 {
		return apperrors.NewConfiguration("COLLECT_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.DegradedThreshold <= 0 || c.DegradedThreshold > 1 {
		return apperrors.NewConfiguration(
			fmt.Sprintf("DEGRADED_THRESHOLD must be in (0, 1], got %v", c.DegradedThreshold), nil)
	}
	if c.RawPath == "" || c.CleanPath == "" {
		return apperrors.NewConfiguration("RAW_PATH and CLEAN_PATH must be set", nil)
	}
	if c.RawPath == c.CleanPath {
		return apperrors.NewConfiguration("RAW_PATH and CLEAN_PATH must differ", nil)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown CACHE_BACKEND %q", c.CacheBackend), nil)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
