package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Sync     SyncConfig
	Board    BoardConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Addr    string
	Enabled bool
}

type AdminConfig struct {
	// Code is the shared secret compared by exact match on every
	// privileged operation (moderation, source management, sync).
	Code string
}

type SyncConfig struct {
	FetchTimeout time.Duration
}

type BoardConfig struct {
	// PublicBaseURL is used to build share links for events that have no
	// origin URL of their own.
	PublicBaseURL string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Path: getEnv("SQLITE_PATH", "eventboard.db"),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled: getEnvBool("REDIS_ENABLED", false),
		},
		Admin: AdminConfig{
			Code: getEnv("ADMIN_CODE", ""),
		},
		Sync: SyncConfig{
			FetchTimeout: time.Duration(getEnvInt("SYNC_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Board: BoardConfig{
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
