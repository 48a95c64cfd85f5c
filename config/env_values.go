package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string

	// Auth configs
	JWTSecret                 string
	JWTExpirationMilliseconds int

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// Collection-name cache
	CollectionCacheTTLSeconds int

	// Audit log configs; auditing is disabled when the DSN is empty
	AuditPostgresDSN string
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3000")
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	// Auth configs
	Env.JWTSecret = getRequiredEnv("JWT_SECRET", "mongobridge_jwt_secret")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*60*24*10) // 10 days default

	// Redis configs
	Env.RedisHost = getRequiredEnv("MONGOBRIDGE_REDIS_HOST", "localhost")
	Env.RedisPort = getRequiredEnv("MONGOBRIDGE_REDIS_PORT", "6379")
	Env.RedisUsername = getRequiredEnv("MONGOBRIDGE_REDIS_USERNAME", "")
	Env.RedisPassword = getRequiredEnv("MONGOBRIDGE_REDIS_PASSWORD", "")

	// Collection-name cache
	Env.CollectionCacheTTLSeconds = getIntEnvWithDefault("COLLECTION_CACHE_TTL_SECONDS", 300)

	// Audit log configs
	Env.AuditPostgresDSN = getEnvWithDefault("AUDIT_POSTGRES_DSN", "")

	return validateConfig()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	// Validate JWT expiration
	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	if Env.CollectionCacheTTLSeconds <= 0 {
		return fmt.Errorf("COLLECTION_CACHE_TTL_SECONDS must be positive, got: %d", Env.CollectionCacheTTLSeconds)
	}

	return nil
}
