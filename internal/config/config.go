// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NCDOT feed.
	FeedBaseURL     string
	FeedTimeout     time.Duration
	FeedCacheTTL    time.Duration
	DefaultCountyID int

	// Local storage.
	SQLitePath string

	// Out-of-band snapshot refresher.
	SnapshotEnabled  bool
	SnapshotInterval time.Duration

	// Optional Kafka publishing of refreshed snapshots.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("FEED_BASE_URL", "https://eapps.ncdot.gov/services/traffic-prod/v1")
	v.SetDefault("FEED_TIMEOUT", "15s")
	v.SetDefault("FEED_CACHE_TTL", "60s")
	v.SetDefault("DEFAULT_COUNTY_ID", 26)
	v.SetDefault("SQLITE_PATH", "storm-status.db")
	v.SetDefault("SNAPSHOT_ENABLED", false)
	v.SetDefault("SNAPSHOT_INTERVAL", "5m")
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "road-closures")

	cfg := &Config{
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		FeedBaseURL:      strings.TrimRight(v.GetString("FEED_BASE_URL"), "/"),
		FeedTimeout:      v.GetDuration("FEED_TIMEOUT"),
		FeedCacheTTL:     v.GetDuration("FEED_CACHE_TTL"),
		DefaultCountyID:  v.GetInt("DEFAULT_COUNTY_ID"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		SnapshotEnabled:  v.GetBool("SNAPSHOT_ENABLED"),
		SnapshotInterval: v.GetDuration("SNAPSHOT_INTERVAL"),
		KafkaEnabled:     v.GetBool("KAFKA_ENABLED"),
		KafkaBrokers:     parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
	}

	if cfg.FeedBaseURL == "" {
		return nil, errors.New("FEED_BASE_URL is required")
	}
	if cfg.FeedTimeout <= 0 {
		return nil, errors.New("invalid FEED_TIMEOUT")
	}
	if cfg.FeedCacheTTL <= 0 {
		return nil, errors.New("invalid FEED_CACHE_TTL")
	}
	if cfg.DefaultCountyID <= 0 {
		return nil, errors.New("invalid DEFAULT_COUNTY_ID")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required")
	}
	if cfg.SnapshotEnabled && cfg.SnapshotInterval <= 0 {
		return nil, errors.New("invalid SNAPSHOT_INTERVAL")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
		if !cfg.SnapshotEnabled {
			return nil, fmt.Errorf("KAFKA_ENABLED requires SNAPSHOT_ENABLED")
		}
	}

	return cfg, nil
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
