package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Kaspi       KaspiConfig
	API         APIConfig
	Sync        SyncConfig
	Pricer      PricerConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type KaspiConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

type APIConfig struct {
	AdminKeyHash string
}

// SyncConfig controls the periodic sync loops
type SyncConfig struct {
	Interval    time.Duration
	OrderWindow time.Duration
	// Strategy is "replace" (canonical) or "merge"
	Strategy string
	Couriers []string
}

type PricerConfig struct {
	Interval time.Duration
	MinPrice int64
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("KASPI_BASE_URL", "https://kaspi.kz/shop/api/v2")
	viper.SetDefault("KASPI_PAGE_SIZE", "100")
	viper.SetDefault("KASPI_TIMEOUT_SECONDS", "30")
	viper.SetDefault("SYNC_INTERVAL_MINUTES", "5")
	viper.SetDefault("SYNC_ORDER_WINDOW_HOURS", "24")
	viper.SetDefault("SYNC_STRATEGY", "replace")
	viper.SetDefault("PRICER_INTERVAL_MINUTES", "60")
	viper.SetDefault("PRICER_MIN_PRICE", "0")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "kaspisync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Kaspi: KaspiConfig{
			BaseURL:  getEnvOrViper("KASPI_BASE_URL", "https://kaspi.kz/shop/api/v2"),
			PageSize: viper.GetInt("KASPI_PAGE_SIZE"),
			Timeout:  time.Duration(viper.GetInt("KASPI_TIMEOUT_SECONDS")) * time.Second,
		},
		API: APIConfig{
			AdminKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
		Sync: SyncConfig{
			Interval:    time.Duration(viper.GetInt("SYNC_INTERVAL_MINUTES")) * time.Minute,
			OrderWindow: time.Duration(viper.GetInt("SYNC_ORDER_WINDOW_HOURS")) * time.Hour,
			Strategy:    getEnvOrViper("SYNC_STRATEGY", "replace"),
			Couriers:    viper.GetStringSlice("SYNC_COURIERS"),
		},
		Pricer: PricerConfig{
			Interval: time.Duration(viper.GetInt("PRICER_INTERVAL_MINUTES")) * time.Minute,
			MinPrice: viper.GetInt64("PRICER_MIN_PRICE"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.API.AdminKeyHash == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY_HASH is required")
	}
	if cfg.Sync.Strategy != "replace" && cfg.Sync.Strategy != "merge" {
		return nil, fmt.Errorf("SYNC_STRATEGY must be replace or merge, got %q", cfg.Sync.Strategy)
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
