package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Translate TranslateConfig
	Pipeline  PipelineConfig
}

// AppConfig general application settings
type AppConfig struct {
	BaseURL    string // used to build shareable room links
	Production bool
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig WebSocket settings
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// DatabaseConfig Postgres settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TranslateConfig translation provider settings
type TranslateConfig struct {
	Region       string
	Enabled      bool
	CallTimeout  time.Duration // per provider call; expiry counts as a failed translation
	BatchTimeout time.Duration
}

// PipelineConfig translation pipeline settings
type PipelineConfig struct {
	DebounceInterval time.Duration // quiet period before a code change triggers translation
	CacheTTL         time.Duration // Redis tier TTL for cached translations
}

// Load reads configuration from environment variables.
func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		App: AppConfig{
			BaseURL:    getEnv("APP_BASE_URL", "http://localhost:5174"),
			Production: getBool("APP_PRODUCTION", false),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4096),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "codecollab"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Translate: TranslateConfig{
			Region:       getEnv("AWS_REGION", "us-east-1"),
			Enabled:      getBool("TRANSLATE_ENABLED", true),
			CallTimeout:  getDuration("TRANSLATE_TIMEOUT", 10*time.Second),
			BatchTimeout: getDuration("TRANSLATE_BATCH_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			DebounceInterval: getDuration("PIPELINE_DEBOUNCE", 1*time.Second),
			CacheTTL:         getDuration("TRANSLATION_CACHE_TTL", 24*time.Hour),
		},
	}
}

// getEnv reads a string env var with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt reads an integer env var
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool reads a boolean env var
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration reads a duration env var; bare numbers are taken as seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
