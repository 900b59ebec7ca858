package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	RequestTimeout time.Duration

	// PostgreSQL (accounts)
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBTimeZone string

	// MongoDB (documents)
	MongoURI    string
	MongoDBName string

	// Author cache: REDIS_ADDR empty means in-process cache
	RedisAddr      string
	RedisPassword  string
	AuthorCacheTTL time.Duration

	JWTSecret          string
	SessionTTL         time.Duration
	DurableSessionTTL  time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	PasswordResetURL   string
	// SessionKey signs the short-lived OAuth state cookie
	SessionKey  string
	FrontendURL string

	// Mail: SENDGRID_API_KEY empty means mail is only logged
	SendGridAPIKey     string
	SendGridBaseURL    string
	SendGridFromEmail  string
	SendGridFromName   string
	SendGridTimeout    time.Duration
	SendGridMaxRetries int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBTimeZone: getEnv("DB_TIMEZONE", "Europe/Kyiv"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDBName: getEnv("MONGO_DB_NAME", "codegram"),

		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AuthorCacheTTL: getDuration("AUTHOR_CACHE_TTL", 0),

		JWTSecret:          getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		DurableSessionTTL:  getDuration("DURABLE_SESSION_TTL", 30*24*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		PasswordResetURL:   getEnv("PASSWORD_RESET_URL", "http://localhost:5173/reset-password"),
		SessionKey:         getEnv("SESSION_KEY", "default-session-key-change-in-production"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),

		SendGridAPIKey:     strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		SendGridBaseURL:    os.Getenv("SENDGRID_BASE_URL"),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", "no-reply@codegram.dev"),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Codegram"),
		SendGridTimeout:    getDuration("SENDGRID_TIMEOUT", 30*time.Second),
		SendGridMaxRetries: getInt("SENDGRID_MAX_RETRIES", 4),
	}
}

func getEnv(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", name, v, def)
		return def
	}
	return n
}

// getDuration accepts Go durations ("90s") or plain seconds ("90").
func getDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s=%q, using %s", name, v, def)
	return def
}
