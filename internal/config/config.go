package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from the environment.
type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match timing (seconds unless noted)
	RoundTimeoutSeconds      int
	QueuePairingDeadlineSecs int
	LivenessPingSeconds      int
	LivenessIdleSeconds      int
	FillerChoiceDelaySeconds int

	// Security
	JWTSecret string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/rps?sslmode=disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		RoundTimeoutSeconds:      getEnvInt("ROUND_TIMEOUT_SECONDS", 15),
		QueuePairingDeadlineSecs: getEnvInt("QUEUE_PAIRING_DEADLINE_SECONDS", 3),
		LivenessPingSeconds:      getEnvInt("LIVENESS_PING_SECONDS", 5),
		LivenessIdleSeconds:      getEnvInt("LIVENESS_IDLE_SECONDS", 10),
		FillerChoiceDelaySeconds: getEnvInt("FILLER_CHOICE_DELAY_SECONDS", 3),

		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
