package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration required by the service.
type Config struct {
	DBURL          string
	Port           string
	AllowedOrigins []string
	SessionTTL     time.Duration
}

// Load reads required values from environment variables.
//
//	DB_URL            required, Postgres connection string
//	PORT              default 8080
//	ALLOWED_ORIGINS   comma-separated CORS origins, default "*"
//	SESSION_TTL_HOURS default 72
func Load() (Config, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			return Config{}, errors.New("ALLOWED_ORIGINS must list at least one origin")
		}
	}

	ttlHours := 72
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer, got %q", raw)
		}
		ttlHours = n
	}

	return Config{
		DBURL:          dbURL,
		Port:           port,
		AllowedOrigins: origins,
		SessionTTL:     time.Duration(ttlHours) * time.Hour,
	}, nil
}
