package config

import (
	"strconv"
	"time"

	"github.com/openclaw/hosted/internal/pkg/env"
)

// Config is the explicit process configuration. It is built once at startup
// and handed to each component; core logic never reads the environment
// directly.
type Config struct {
	AppHost string
	AppPort string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	CacheHost string
	CachePort string

	// Hetzner control plane + provisioning script environment
	HetznerAPIToken string
	SSHKeyID        string
	FirewallID      string

	// Paddle
	PaddleWebhookSecret string

	// Admin API
	AdminAPIKey string

	ProvisioningScript string
	ProvisionTimeout   time.Duration

	JobQueueWorkers int
}

// Load materializes a Config from the environment (.env file plus OS env).
func Load() *Config {
	return &Config{
		AppHost: env.GetEnv("APP_HOST", "localhost"),
		AppPort: env.GetEnv("APP_PORT", "4000"),

		DBUser:     env.GetEnv("DB_USER", ""),
		DBPassword: env.GetEnv("DB_PASSWORD", ""),
		DBHost:     env.GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:     env.GetEnv("DB_PORT", "3306"),
		DBName:     env.GetEnv("DB_NAME", "openclaw_hosted"),

		CacheHost: env.GetEnv("CACHE_HOST", "localhost"),
		CachePort: env.GetEnv("CACHE_PORT", "6379"),

		HetznerAPIToken: env.GetEnv("HETZNER_API_TOKEN", ""),
		SSHKeyID:        env.GetEnv("SSH_KEY_ID", ""),
		FirewallID:      env.GetEnv("FIREWALL_ID", ""),

		PaddleWebhookSecret: env.GetEnv("PADDLE_WEBHOOK_SECRET", ""),

		AdminAPIKey: env.GetEnv("ADMIN_API_KEY", "changeme"),

		ProvisioningScript: env.GetEnv("PROVISIONING_SCRIPT", "./provisioning.sh"),
		ProvisionTimeout:   durationFromEnv("PROVISION_TIMEOUT_SECONDS", 600*time.Second),

		JobQueueWorkers: intFromEnv("JOB_QUEUE_WORKERS", 5),
	}
}

func intFromEnv(key string, def int) int {
	if v, err := strconv.Atoi(env.GetEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v, err := strconv.Atoi(env.GetEnv(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}
