package store

import (
	"os"
	"strconv"
	"time"
)

// RedisConfigFromEnv loads Redis configuration from environment variables.
func RedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Addr:     getEnv("CLAUSELENS_REDIS_ADDR", "localhost:6379"),
		Password: getEnv("CLAUSELENS_REDIS_PASSWORD", ""),
		DB:       getEnvInt("CLAUSELENS_REDIS_DB", 0),
		Prefix:   getEnv("CLAUSELENS_REDIS_PREFIX", "clauselens:session:"),
		TTL:      getEnvDuration("CLAUSELENS_REDIS_TTL", 24*time.Hour),
	}
}

// MongoConfigFromEnv loads MongoDB configuration from environment variables.
func MongoConfigFromEnv() *MongoConfig {
	return &MongoConfig{
		URI:        getEnv("CLAUSELENS_MONGODB_URI", "mongodb://localhost:27017"),
		Database:   getEnv("CLAUSELENS_MONGODB_DB", "clauselens"),
		Collection: getEnv("CLAUSELENS_MONGODB_COLLECTION", "sessions"),
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
