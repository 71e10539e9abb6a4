package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lzhoang/userbase-be/internal/password"
)

// Storage driver names accepted in STORAGE_DRIVER.
const (
	DriverJSONFile = "jsonfile"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	DataFile      string
	DatabaseURL   string
	JWTSecret     string
	JWTTTL        time.Duration
	BcryptCost    int
	CORSOrigins   []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8080"),
		StorageDriver: fallback(os.Getenv("STORAGE_DRIVER"), DriverJSONFile),
		DataFile:      fallback(os.Getenv("DATA_FILE"), "data/users.json"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	days := fallback(os.Getenv("JWT_TTL_DAYS"), "7")
	if ttlDays, err := strconv.Atoi(days); err == nil && ttlDays > 0 {
		cfg.JWTTTL = time.Duration(ttlDays) * 24 * time.Hour
	} else {
		cfg.JWTTTL = 7 * 24 * time.Hour
	}

	cost := fallback(os.Getenv("BCRYPT_COST"), strconv.Itoa(password.DefaultCost))
	if parsed, err := strconv.Atoi(cost); err == nil && parsed > 0 {
		cfg.BcryptCost = parsed
	} else {
		cfg.BcryptCost = password.DefaultCost
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.StorageDriver {
	case DriverJSONFile:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
