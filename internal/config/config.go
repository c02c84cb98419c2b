package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the web frontend reads from the environment.
type Config struct {
	Port         string
	APIBaseURL   string
	APITimeout   time.Duration
	JWTSecret    string
	SessionKey   string
	CookieSecure bool
	LogLevel     string

	DatabaseURL string
	SurveyStore string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int

	MetricsEnabled bool
}

var ErrMissingSessionKey = errors.New("SESSION_KEY is required")

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{
		Port:           GetString("PORT", "8080"),
		APIBaseURL:     GetString("API_BASE_URL", "http://localhost:4000"),
		APITimeout:     GetDuration("API_TIMEOUT", 15*time.Second),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionKey:     os.Getenv("SESSION_KEY"),
		CookieSecure:   GetBool("COOKIE_SECURE", false),
		LogLevel:       GetString("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SurveyStore:    GetString("SURVEY_STORE", ""),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        GetInt("REDIS_DB", 0),
		RateLimitRPS:   GetFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst: GetInt("RATE_LIMIT_BURST", 5),
		MetricsEnabled: GetBool("METRICS_ENABLED", true),
	}
	if c.SessionKey == "" {
		return c, ErrMissingSessionKey
	}
	if c.SurveyStore == "" {
		// postgres wins when configured
		c.SurveyStore = "memory"
		if c.DatabaseURL != "" {
			c.SurveyStore = "postgres"
		}
	}
	return c, nil
}

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return n
	}
	return fallback
}

func GetFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return f
	}
	return fallback
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return b
	}
	return fallback
}

// GetDuration accepts Go duration strings ("15s", "1m").
func GetDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return d
	}
	return fallback
}
