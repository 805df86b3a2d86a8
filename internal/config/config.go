package config

import (
	"os"

	"github.com/joho/godotenv"

	"stocklens/internal/models"
)

// Load returns the server configuration from environment variables.
// A .env file in the working directory is read first if present.
func Load() models.Config {
	godotenv.Load()

	return models.Config{
		Port:        getEnv("PORT", "9080"),
		DBPath:      getEnv("DB_PATH", "stocklens.db"),
		AdminUser:   getEnv("ADMIN_USER", "admin"),
		AdminPass:   getEnv("ADMIN_PASS", ""),
		AuthEnabled: getEnv("AUTH_ENABLED", "true") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
