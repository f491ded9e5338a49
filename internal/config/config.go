package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Service configuration
	ServiceName string
	Debug       bool

	// HTTP configuration
	HTTPAddr string

	// NATS configuration
	NatsURL            string
	NatsRequestSubject string
	NatsTimeout        time.Duration

	// Ollama configuration
	OllamaHost        string
	OllamaModel       string
	OllamaTimeout     time.Duration
	OllamaTemperature float64
	OllamaMaxTokens   int
	OllamaRPS         float64

	// Recognition configuration. RequestTimeout bounds one whole
	// recognition request; it must cover both sequential backend calls,
	// so it defaults to twice OllamaTimeout.
	ConfidenceThreshold float64
	RequestTimeout      time.Duration

	// Session state configuration. An empty RedisURL selects the
	// in-memory store.
	RedisURL         string
	SessionTTL       time.Duration
	SessionCacheSize int
}

func Load() *Config {
	ollamaTimeout := getDurationEnv("OLLAMA_TIMEOUT", 30*time.Second)

	return &Config{
		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "voxquest"),
		Debug:       getBoolEnv("DEBUG", false),

		// HTTP settings
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		// NATS settings
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsRequestSubject: getEnv("NATS_REQUEST_SUBJECT", "commands.recognize"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Ollama settings
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "qwen3:0.6b"),
		OllamaTimeout:     ollamaTimeout,
		OllamaTemperature: getFloatEnv("OLLAMA_TEMPERATURE", 0.1),
		OllamaMaxTokens:   getIntEnv("OLLAMA_MAX_TOKENS", 512),
		OllamaRPS:         getFloatEnv("OLLAMA_RPS", 0),

		// Recognition settings
		ConfidenceThreshold: getFloatEnv("CMD_RECOGNITION_CONFIDENCE_THRESHOLD", 0.6),
		RequestTimeout:      getDurationEnv("REQUEST_TIMEOUT", 2*ollamaTimeout),

		// Session settings
		RedisURL:         getEnv("REDIS_URL", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL", 30*time.Minute),
		SessionCacheSize: getIntEnv("SESSION_CACHE_SIZE", 1024),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
