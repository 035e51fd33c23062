package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all settings for the job-analyzer service, loaded from
// environment variables.
type Config struct {
	// HTTP front end.
	ListenAddr string

	// Ollama Cloud.
	OllamaAPIURL  string
	OllamaAPIKey  string
	OllamaModel   string
	OllamaTimeout time.Duration
	// RetryMaxAttempts <= 0 means retry forever.
	RetryMaxAttempts int
	RetryDelay       time.Duration

	// Firebase / GCP.
	ProjectID       string
	StorageBucket   string
	CredentialsFile string
	JobsCollection  string
	StorageFolder   string

	// WebP conversion quality, 0..100.
	ImageQuality int
}

// GetEnv retrieves an environment variable or returns the default.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Load reads and validates the full service configuration.
func Load() (*Config, error) {
	apiKey := GetEnv("OLLAMA_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("OLLAMA_API_KEY environment variable must be set")
	}

	projectID := GetEnv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID environment variable must be set")
	}

	bucket := GetEnv("FIREBASE_STORAGE_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET environment variable must be set")
	}

	return &Config{
		ListenAddr: GetEnv("LISTEN_ADDR", ":8080"),

		OllamaAPIURL:     GetEnv("OLLAMA_API_URL", "https://ollama.com/api/chat"),
		OllamaAPIKey:     apiKey,
		OllamaModel:      GetEnv("OLLAMA_MODEL", "qwen3-vl:235b-cloud"),
		OllamaTimeout:    time.Duration(getEnvInt("OLLAMA_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryMaxAttempts: getEnvInt("OLLAMA_MAX_RETRIES", 0),
		RetryDelay:       time.Duration(getEnvInt("OLLAMA_RETRY_DELAY_SECONDS", 1)) * time.Second,

		ProjectID:       projectID,
		StorageBucket:   bucket,
		CredentialsFile: GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "serviceAccountKey.json"),
		JobsCollection:  GetEnv("JOBS_COLLECTION", "jobs"),
		StorageFolder:   GetEnv("STORAGE_FOLDER", "jobs"),

		ImageQuality: getEnvInt("IMAGE_QUALITY", 95),
	}, nil
}
