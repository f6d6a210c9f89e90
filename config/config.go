package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	JWTSecret     string
	AllowedOrigin string
	// Remote store API
	CatalogAPIURL     string
	CatalogAPITimeout time.Duration
	// Variant sessions
	SessionStore   string
	RedisURL       string
	SessionTTL     time.Duration
	ProductListTTL time.Duration
	// DB Config (optional, save audits)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// R2 Storage (optional, matrix exports)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2UploadTimeout   time.Duration
	// Upload Configuration
	MaxUploadSizeMB int64
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// In docker/prod envs .env might not exist; system env vars are used.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := Load()
	cfg.Validate()
	return cfg
}

// Load reads the configuration from the environment without validating it.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		CatalogAPIURL:     getEnv("CATALOG_API_URL", ""),
		CatalogAPITimeout: getDurationEnv("CATALOG_API_TIMEOUT", 30*time.Second),

		// Sessions: in-process by default, 2h idle expiry
		SessionStore:   getEnv("SESSION_STORE", SessionStoreMemory),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:     getDurationEnv("SESSION_TTL", 2*time.Hour),
		ProductListTTL: getDurationEnv("PRODUCT_LIST_TTL", time.Minute),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 10),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 1),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		// R2 Storage
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),

		// Upload defaults: 10MB max
		MaxUploadSizeMB: getInt64Env("MAX_UPLOAD_SIZE_MB", 10),

		// Rate limit defaults: 20 req/s, burst 40
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 40),
	}
}

func (c *Config) Validate() {
	if c.CatalogAPIURL == "" {
		log.Fatal("CRITICAL: CATALOG_API_URL environment variable is required")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	if c.SessionStore != SessionStoreMemory && c.SessionStore != SessionStoreRedis {
		log.Fatalf("CRITICAL: SESSION_STORE must be %q or %q", SessionStoreMemory, SessionStoreRedis)
	}
}

// R2Enabled reports whether every R2 setting needed for uploads is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}
