package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/earthring/ninepatch/internal/ninepatch"
)

const (
	// DefaultMaxDimension is the default largest render target per axis.
	DefaultMaxDimension = 4096

	// DefaultMaxInputDimension is the default largest source image per axis.
	DefaultMaxInputDimension = 8192
)

// Config holds all configuration for the nine-patch server and CLI
type Config struct {
	Server    ServerConfig
	Chunk     ChunkConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Profiling ProfilingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// ChunkConfig holds defaults for chunk builds
type ChunkConfig struct {
	ByteOrder string // little, big or native
	Strict    bool
}

// UploadConfig limits uploaded source images
type UploadConfig struct {
	MaxBytes          int64
	MaxDimension      int // largest render target per axis
	MaxInputDimension int // largest decoded source image per axis
}

// RateLimitConfig holds the per-client request limit
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// CORSConfig holds allowed browser origins (also used for websocket origin checks)
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	OutputPath string
}

// ProfilingConfig toggles the build profiler
type ProfilingConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and .env file
// The .env file is loaded from the current working directory
func Load() (*Config, error) {
	// Environment variables can still be set directly if .env is missing
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found (this is OK if using environment variables): %v", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Chunk: ChunkConfig{
			ByteOrder: getEnv("CHUNK_BYTE_ORDER", "native"),
			Strict:    getBoolEnv("CHUNK_STRICT", false),
		},
		Upload: UploadConfig{
			MaxBytes:          int64(getIntEnv("UPLOAD_MAX_BYTES", 10<<20)),
			MaxDimension:      getIntEnv("RENDER_MAX_DIMENSION", DefaultMaxDimension),
			MaxInputDimension: getIntEnv("UPLOAD_MAX_DIMENSION", DefaultMaxInputDimension),
		},
		RateLimit: RateLimitConfig{
			Limit:  getIntEnv("RATE_LIMIT", 600),
			Window: getDurationEnv("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:5173", // Vite default port
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			}),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			OutputPath: getEnv("LOG_OUTPUT_PATH", ""),
		},
		Profiling: ProfilingConfig{
			Enabled: getBoolEnv("PROFILING_ENABLED", true),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if _, err := ninepatch.ParseByteOrder(c.Chunk.ByteOrder); err != nil {
		return errors.Wrap(err, "CHUNK_BYTE_ORDER")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Upload.MaxDimension <= 0 {
		return errors.New("RENDER_MAX_DIMENSION must be positive")
	}
	if c.Upload.MaxInputDimension <= 0 {
		return errors.New("UPLOAD_MAX_DIMENSION must be positive")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT and RATE_LIMIT_WINDOW must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

// Address returns the host:port the server listens on
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// IsDevelopment returns true if running in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Debug returns true if builder diagnostics should be logged
func (c *LoggingConfig) Debug() bool {
	return c.Level == "debug"
}

// Helper functions for environment variable access

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return boolValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return duration
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
