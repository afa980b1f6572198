package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	APISecret          string
	CronSecret         string
	GoogleClientID     string
	GoogleClientSecret string
	HubSpotAPIKey      string
	HubSpotBaseURL     string
	SlackBotToken      string
	OpenAIAPIKey       string
	EmbeddingModel     string
	SyncInterval       time.Duration
	QueueWorkers       int
	QueueRetentionDays int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	syncInterval := 15 * time.Minute
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			syncInterval = parsed
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=support_sync port=5432 sslmode=disable"),
		APISecret:          getEnv("API_SECRET", ""),
		CronSecret:         getEnv("CRON_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		HubSpotAPIKey:      getEnv("HUBSPOT_API_KEY", ""),
		HubSpotBaseURL:     getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		SyncInterval:       syncInterval,
		QueueWorkers:       getEnvInt("QUEUE_WORKERS", 2),
		QueueRetentionDays: getEnvInt("QUEUE_RETENTION_DAYS", 7),
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
