// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Admin access
	AdminPassword string
	SessionTTL    time.Duration

	// WhatsApp destination for quotes and reminders
	WhatsAppPhone string

	// Database
	SQLiteDBPath string

	// Object storage bucket
	StorageURL    string
	StorageBucket string
	StorageKey    string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Calendar mirror
	GoogleCalendarID string

	// Reminder worker
	ReminderCron string

	// Cache
	CacheTTL time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		AdminPassword: getEnv("ADMIN_PASSWORD", "Norden2024"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),

		WhatsAppPhone: getEnv("WHATSAPP_PHONE", "5491132747900"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/nordenzelt.db"),

		StorageURL:    getEnv("STORAGE_URL", ""),
		StorageBucket: getEnv("STORAGE_BUCKET", "media"),
		StorageKey:    getEnv("STORAGE_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "nordenzelt"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_events"),

		GoogleCalendarID: getEnv("GOOGLE_CALENDAR_ID", ""),

		ReminderCron: getEnv("REMINDER_CRON", "0 9 * * *"),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AdminPassword == "" {
		errors = append(errors, "admin password cannot be empty")
	}

	if c.WhatsAppPhone == "" {
		errors = append(errors, "WhatsApp phone number cannot be empty")
	} else {
		for _, r := range c.WhatsAppPhone {
			if r < '0' || r > '9' {
				errors = append(errors, fmt.Sprintf("invalid WhatsApp phone '%s': digits only, international format without '+'", c.WhatsAppPhone))
				break
			}
		}
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Uploads need the full bucket configuration or none of it.
	storageSet := c.StorageURL != "" || c.StorageKey != ""
	if storageSet {
		if c.StorageURL == "" {
			errors = append(errors, "STORAGE_URL is required when object storage is configured")
		} else if parsed, err := url.Parse(c.StorageURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid storage URL '%s': must be http or https", c.StorageURL))
		}
		if c.StorageKey == "" {
			errors = append(errors, "STORAGE_KEY is required when object storage is configured")
		}
		if c.StorageBucket == "" {
			errors = append(errors, "storage bucket name cannot be empty when object storage is configured")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.ReminderCron == "" {
		errors = append(errors, "reminder cron expression cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// StorageConfigured reports whether the media bucket can be used.
func (c *Config) StorageConfigured() bool {
	return c.StorageURL != "" && c.StorageKey != "" && c.StorageBucket != ""
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
