package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the daemon.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Remote      RemoteConfig
	Cache       CacheConfig
	Sync        SyncConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RemoteConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	PingInterval   time.Duration
}

type CacheConfig struct {
	Path string
}

type SyncConfig struct {
	Interval     time.Duration
	DrainTimeout time.Duration
	PurgeAfter   time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the daemon can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "chorehubd"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "127.0.0.1"),
			Port:         getString("SERVER_PORT", "8710"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Remote: RemoteConfig{
			BaseURL:        getString("REMOTE_BASE_URL", "http://localhost:8000"),
			RequestTimeout: getDuration("REMOTE_REQUEST_TIMEOUT", 15*time.Second),
			PingInterval:   getDuration("REMOTE_PING_INTERVAL", 10*time.Second),
		},
		Cache: CacheConfig{
			Path: getString("CACHE_PATH", "./data/cache.db"),
		},
		Sync: SyncConfig{
			Interval:     getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			DrainTimeout: getDuration("SYNC_DRAIN_TIMEOUT", 30*time.Second),
			PurgeAfter:   getDuration("SYNC_PURGE_AFTER", 7*24*time.Hour),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the listen address for the local API server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
