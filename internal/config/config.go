package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	NatsURL        string
	NatsToken      string
	DatabaseURL    string
	LogLevel       string
	APIToken       string
	MinMessages    int
	AnalyzeTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:           envInt("CHATLENS_PORT", 8760),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		APIToken:       envStr("CHATLENS_API_TOKEN", ""),
		MinMessages:    envInt("CHATLENS_MIN_MESSAGES", 4),
		AnalyzeTimeout: envDuration("CHATLENS_ANALYZE_TIMEOUT", 30*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
