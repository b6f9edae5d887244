package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://eapps.ncdot.gov/services/traffic-prod/v1", cfg.FeedBaseURL)
	assert.Equal(t, 15*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 60*time.Second, cfg.FeedCacheTTL)
	assert.Equal(t, 26, cfg.DefaultCountyID)
	assert.Equal(t, "storm-status.db", cfg.SQLitePath)
	assert.False(t, cfg.SnapshotEnabled, "the refresher is opt-in")
	assert.Equal(t, 5*time.Minute, cfg.SnapshotInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "road-closures", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FEED_BASE_URL", "http://localhost:8181/traffic/")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("FEED_CACHE_TTL", "10s")
	t.Setenv("DEFAULT_COUNTY_ID", "92")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("SNAPSHOT_ENABLED", "true")
	t.Setenv("SNAPSHOT_INTERVAL", "1m")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-closures")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8181/traffic", cfg.FeedBaseURL, "trailing slash is stripped")
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 10*time.Second, cfg.FeedCacheTTL)
	assert.Equal(t, 92, cfg.DefaultCountyID)
	assert.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	assert.True(t, cfg.SnapshotEnabled)
	assert.Equal(t, time.Minute, cfg.SnapshotInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-closures", cfg.KafkaTopic)
}

func TestLoad_InvalidFeedTimeout(t *testing.T) {
	t.Setenv("FEED_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_TIMEOUT")
}

func TestLoad_InvalidCacheTTL(t *testing.T) {
	t.Setenv("FEED_CACHE_TTL", "-5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_CACHE_TTL")
}

func TestLoad_InvalidCounty(t *testing.T) {
	t.Setenv("DEFAULT_COUNTY_ID", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_COUNTY_ID")
}

func TestLoad_KafkaRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaRequiresSnapshot(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("SNAPSHOT_ENABLED", "false")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNAPSHOT_ENABLED")
}
