package config

import (
	"os"
	"time"
)

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "postgres")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "mediashelf")
	password := GetEnv("DB_PASS", "")
	name := GetEnv("DB_NAME", "mediashelf")
	return host, port, user, password, name
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// OMDbConfig returns base URL and API key for the metadata provider
func OMDbConfig() (string, string) {
	baseURL := GetEnv("OMDB_URL", "https://www.omdbapi.com")
	apiKey := GetEnv("OMDB_API_KEY", "")
	return baseURL, apiKey
}

func ServerPort() string {
	return GetEnv("PORT", "8080")
}

// RecommendationTTL is how long a cached recommendation set stays valid.
func RecommendationTTL() time.Duration {
	return GetEnvDuration("RECS_CACHE_TTL", time.Hour)
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration parses a duration env var, falling back on the default when
// unset or malformed
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
