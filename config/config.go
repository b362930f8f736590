package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	VaultConfig    VaultConfig    `json:"vault"`
	AuthConfig     AuthConfig     `json:"auth"`
	AIConfig       AIConfig       `json:"ai"`
	MarketConfig   MarketConfig   `json:"market"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP/WebSocket server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`     // seconds
	WriteTimeout    int    `json:"write_timeout"`    // seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // seconds
	ProductionMode  bool   `json:"production_mode"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis configuration for the credit balance cache
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// VaultConfig holds HashiCorp Vault configuration for AI API keys
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// AuthConfig holds Whop token verification settings
type AuthConfig struct {
	Enabled         bool          `json:"enabled"`
	WhopAppSecret   string        `json:"whop_app_secret"`
	TokenLeeway     time.Duration `json:"token_leeway"`
	DevUserID       string        `json:"dev_user_id"`
	AdminSecretHash string        `json:"admin_secret_hash"` // bcrypt hash guarding grant/revoke
}

// AIConfig holds decision engine configuration
type AIConfig struct {
	AnthropicAPIKey string  `json:"anthropic_api_key"`
	OpenAIAPIKey    string  `json:"openai_api_key"`
	PrimaryModel    string  `json:"primary_model"`
	FallbackModel   string  `json:"fallback_model"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float64 `json:"temperature"`
	TimeoutSeconds  int     `json:"timeout_seconds"`
}

// MarketConfig holds market data provider configuration
type MarketConfig struct {
	BaseURL        string `json:"base_url"`
	CandleInterval string `json:"candle_interval"`
	CandleLimit    int    `json:"candle_limit"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // console writer when false
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("SERVER_PRODUCTION_MODE", "false") == "true"

	// Database config
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", defaultString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", 5432)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", defaultString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", defaultString(cfg.DatabaseConfig.Database, "signalix"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", defaultString(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "true") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", 0)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", 10)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", "http://localhost:8200")
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", "secret")
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", "signalix/ai-keys")
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"

	// Auth config
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", "false") == "true"
	cfg.AuthConfig.WhopAppSecret = getEnvOrDefault("WHOP_APP_SECRET", cfg.AuthConfig.WhopAppSecret)
	cfg.AuthConfig.TokenLeeway = getEnvDurationOrDefault("AUTH_TOKEN_LEEWAY", 30*time.Second)
	cfg.AuthConfig.DevUserID = getEnvOrDefault("AUTH_DEV_USER_ID", defaultString(cfg.AuthConfig.DevUserID, "dev-user-123"))
	cfg.AuthConfig.AdminSecretHash = getEnvOrDefault("AUTH_ADMIN_SECRET_HASH", cfg.AuthConfig.AdminSecretHash)

	// AI config
	cfg.AIConfig.AnthropicAPIKey = getEnvOrDefault("ANTHROPIC_API_KEY", cfg.AIConfig.AnthropicAPIKey)
	cfg.AIConfig.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", cfg.AIConfig.OpenAIAPIKey)
	cfg.AIConfig.PrimaryModel = getEnvOrDefault("AI_PRIMARY_MODEL", defaultString(cfg.AIConfig.PrimaryModel, "claude-sonnet-4-20250514"))
	cfg.AIConfig.FallbackModel = getEnvOrDefault("AI_FALLBACK_MODEL", defaultString(cfg.AIConfig.FallbackModel, "gpt-4o-mini"))
	cfg.AIConfig.MaxTokens = getEnvIntOrDefault("AI_MAX_TOKENS", 1024)
	cfg.AIConfig.Temperature = getEnvFloatOrDefault("AI_TEMPERATURE", 0.3)
	cfg.AIConfig.TimeoutSeconds = getEnvIntOrDefault("AI_TIMEOUT_SECONDS", 30)

	// Market config
	cfg.MarketConfig.BaseURL = getEnvOrDefault("MARKET_BASE_URL", defaultString(cfg.MarketConfig.BaseURL, "https://api.binance.com"))
	cfg.MarketConfig.CandleInterval = getEnvOrDefault("MARKET_CANDLE_INTERVAL", defaultString(cfg.MarketConfig.CandleInterval, "5m"))
	cfg.MarketConfig.CandleLimit = getEnvIntOrDefault("MARKET_CANDLE_LIMIT", 100)
	cfg.MarketConfig.TimeoutSeconds = getEnvIntOrDefault("MARKET_TIMEOUT_SECONDS", 10)

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
