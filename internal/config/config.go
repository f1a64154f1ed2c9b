package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process configuration sourced from the environment.
// A .env file in the working directory is loaded first if present.
type Config struct {
	Port string

	// GCP settings for the BigQuery-backed store and report exports.
	ProjectID string
	DatasetID string
	Bucket    string

	// Notion settings for monthly summary sync.
	NotionToken      string
	NotionDatabaseID string

	// Users the worker materializes on its schedule.
	WorkerUsers []string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	// Missing .env is fine; env vars may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		ProjectID:        os.Getenv("GCP_PROJECT"),
		DatasetID:        getEnv("BQ_DATASET", "finplan"),
		Bucket:           os.Getenv("GCS_BUCKET"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
	}
	if users := os.Getenv("WORKER_USERS"); users != "" {
		for _, u := range strings.Split(users, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.WorkerUsers = append(cfg.WorkerUsers, u)
			}
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
