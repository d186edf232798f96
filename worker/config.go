package worker

import (
	"os"
	"time"

	"github.com/greedsolver/greed/config"
)

// WorkerConfig holds configuration for the lookup worker.
type WorkerConfig struct {
	// Subject the worker answers lookups on.
	Subject string

	// Queue group shared by every worker, so each request is answered once.
	QueueGroup string

	// How long a single lookup may take, including a first solve.
	RequestTimeout time.Duration

	// Solve the configured ruleset at startup so its first lookups are fast.
	Warm bool

	GreedConfig *config.Config
}

func DefaultWorkerConfig(cfg *config.Config) *WorkerConfig {
	return &WorkerConfig{
		Subject:        getEnv("GREED_WORKER_SUBJECT", "greed.lookup"),
		QueueGroup:     getEnv("GREED_WORKER_QUEUE", "greed-workers"),
		RequestTimeout: getEnvDuration("GREED_WORKER_REQUEST_TIMEOUT", 2*time.Minute),
		Warm:           getEnv("GREED_WORKER_WARM", "true") == "true",
		GreedConfig:    cfg,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
