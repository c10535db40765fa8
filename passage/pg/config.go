package pg

import (
	"os"
	"strconv"
)

// ConfigFromEnv loads pgvector configuration from environment variables.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Host = getEnv("CLAUSELENS_POSTGRES_HOST", cfg.Host)
	cfg.Port = getEnvInt("CLAUSELENS_POSTGRES_PORT", cfg.Port)
	cfg.User = getEnv("CLAUSELENS_POSTGRES_USER", cfg.User)
	cfg.Password = getEnv("CLAUSELENS_POSTGRES_PASSWORD", cfg.Password)
	cfg.DBName = getEnv("CLAUSELENS_POSTGRES_DB", cfg.DBName)
	cfg.SSLMode = getEnv("CLAUSELENS_POSTGRES_SSLMODE", cfg.SSLMode)
	cfg.Dimension = getEnvInt("CLAUSELENS_POSTGRES_DIMENSION", cfg.Dimension)
	cfg.TableName = getEnv("CLAUSELENS_POSTGRES_TABLE", cfg.TableName)
	return cfg
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
