package config

import (
	"os"
	"time"
)

const (
	// Token
	TokenIssuer   = "chatrelay-service"
	TokenValidity = 24 * time.Hour

	// Persistence. Message writes must complete within this window or the
	// event is dropped as a persistence failure.
	PersistTimeout = 5 * time.Second

	// Realtime delivery
	SendBufferSize = 256
)

// Config carries the environment-driven settings read once at startup.
type Config struct {
	HTTPAddr      string
	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	TelegramToken string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment. Callers are expected to
// have loaded .env beforehand (godotenv in the mains).
func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseDSN:   getenv("DATABASE_DSN", "host=localhost user=user password=password dbname=chatrelaydb port=5432 sslmode=disable"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET", "dev_only_secret_change_me"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
}
