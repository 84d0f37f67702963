package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port        string
		Env         string
		Timeout     time.Duration
		MetricsPort string
		// TraceStdout prints finished spans to stdout
		TraceStdout bool
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Redis holds the ephemeral per-user state store settings
	Redis struct {
		URL              string
		SessionTTL       time.Duration
		MediaGroupTTL    time.Duration
		RecentButtonsTTL time.Duration
	}

	// Vault holds the optional secret store; empty Address disables it
	Vault struct {
		Address   string
		Token     string
		Namespace string
		Mount     string
		Path      string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Reactions holds the limits and defaults of the reaction ledger and layout engine
	Reactions struct {
		MaxButtons      int
		MaxButtonLen    int
		DefaultButtons  []string
		DefaultColumns  int
		DefaultTypes    []string
		BotUsername     string
		HealthCheckTick time.Duration
	}

	// Cache settings for chat configuration reads
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Load reads a fresh Config from the environment without touching the singleton
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.MetricsPort = getEnvString("METRICS_PORT", "2112")
	cfg.Server.TraceStdout = getEnvBool("TRACE_STDOUT", false)

	// Database config
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "reactor")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	// Redis config
	cfg.Redis.URL = getEnvString("REDIS_URL", "redis://localhost:6379/0")
	cfg.Redis.SessionTTL = getEnvDuration("SESSION_TTL", time.Hour)
	cfg.Redis.MediaGroupTTL = getEnvDuration("MEDIA_GROUP_TTL", time.Minute)
	cfg.Redis.RecentButtonsTTL = getEnvDuration("RECENT_BUTTONS_TTL", 30*24*time.Hour)

	// Vault config
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.Mount = getEnvString("VAULT_MOUNT", "secret")
	cfg.Vault.Path = getEnvString("VAULT_SECRETS_PATH", "reactor")

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Reaction limits
	cfg.Reactions.MaxButtons = getEnvInt("MAX_NUM_BUTTONS", 25)
	cfg.Reactions.MaxButtonLen = getEnvInt("MAX_BUTTON_LEN", 20)
	cfg.Reactions.DefaultButtons = getEnvStringSlice("DEFAULT_BUTTONS", []string{"👍", "👎"})
	cfg.Reactions.DefaultColumns = getEnvInt("DEFAULT_COLUMNS", 4)
	cfg.Reactions.DefaultTypes = getEnvStringSlice("DEFAULT_ALLOWED_TYPES", []string{"photo", "video", "animation", "link", "forward"})
	cfg.Reactions.BotUsername = getEnvString("BOT_USERNAME", "")
	cfg.Reactions.HealthCheckTick = getEnvDuration("HEALTH_CHECK_PERIOD", 30*time.Second)

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

	return cfg
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
