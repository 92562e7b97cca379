package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	HTTPPort int `mapstructure:"http_port"`

	// Database configuration
	DatabaseURL string `mapstructure:"database_url"`

	// Redis configuration (transfer pair locks)
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// Coin economy configuration
	InitialBalance  int64 `mapstructure:"initial_balance"`
	DefaultLimitMax int   `mapstructure:"default_limit_max"`

	// Room configuration
	RoomTTLMinutes          int `mapstructure:"room_ttl_minutes"`
	HeartbeatTimeoutSeconds int `mapstructure:"heartbeat_timeout_seconds"`
	SweepIntervalSeconds    int `mapstructure:"sweep_interval_seconds"`

	// Environment: "development", "production" or "test"
	Environment string `mapstructure:"environment"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load reads configuration from environment variables with defaults
func load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", 8080)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("initial_balance", 0)
	v.SetDefault("default_limit_max", 3)
	v.SetDefault("room_ttl_minutes", 240)
	v.SetDefault("heartbeat_timeout_seconds", 90)
	v.SetDefault("sweep_interval_seconds", 30)
	v.SetDefault("environment", "development")

	// Bind explicitly so Unmarshal sees env-only keys
	for _, key := range []string{
		"http_port", "database_url", "redis_addr", "redis_password", "redis_db",
		"initial_balance", "default_limit_max",
		"room_ttl_minutes", "heartbeat_timeout_seconds", "sweep_interval_seconds",
		"environment",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
