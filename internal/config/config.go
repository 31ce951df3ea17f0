package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string
	// ServiceKey authenticates the presentation layer when it mints player
	// session tokens. Player identity itself comes from that layer.
	ServiceKey string

	SeedRotationInterval time.Duration
	IdleActionTimeout    time.Duration

	StartingBalance int64
	MaxBet          int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		ServiceKey: os.Getenv("SERVICE_KEY"),

		SeedRotationInterval: getEnvDuration("SEED_ROTATION_INTERVAL", 12*time.Hour),
		IdleActionTimeout:    getEnvDuration("IDLE_ACTION_TIMEOUT", 30*time.Second),

		StartingBalance: getEnvInt64("STARTING_BALANCE", 10000),
		MaxBet:          getEnvInt64("MAX_BET", 1000000),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("SERVICE_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
