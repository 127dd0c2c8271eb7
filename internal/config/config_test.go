package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIWARE_NOTIFICATION_URLS", "https://consumer.example.com/notify")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=fivegla sslmode=disable",
		cfg.Database.GetDSN())
	assert.Equal(t, 60, cfg.Imports.IntervalMinutes)
	assert.Equal(t, 14, cfg.Imports.LookbackDays)
	assert.True(t, cfg.Fiware.SubscriptionsEnabled)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_PORT", "5433")
	t.Setenv("IMPORT_LOOKBACK_DAYS", "3")
	t.Setenv("FIWARE_SUBSCRIPTIONS_ENABLED", "false")
	t.Setenv("MQTT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Imports.LookbackDays)
	assert.False(t, cfg.Fiware.SubscriptionsEnabled)
	assert.True(t, cfg.MQTT.Enabled)
}

func TestLoad_NotificationURLList(t *testing.T) {
	t.Setenv("FIWARE_NOTIFICATION_URLS", "https://a.example.com/notify, https://b.example.com/notify,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com/notify", "https://b.example.com/notify"},
		cfg.Fiware.NotificationURLs)
}

func TestLoad_SubscriptionsRequireNotificationURLs(t *testing.T) {
	t.Setenv("FIWARE_SUBSCRIPTIONS_ENABLED", "true")
	t.Setenv("FIWARE_NOTIFICATION_URLS", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("FIWARE_SUBSCRIPTIONS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
}
