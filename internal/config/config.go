package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig carries the PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN renders the lib/pq connection string.
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig carries the Redis connection parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig carries the MQTT broker parameters. The camera consumer
// is optional, deployments without field gateways disable it.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
}

// FiwareConfig carries the context broker parameters.
type FiwareConfig struct {
	BrokerURL            string
	NotificationURLs     []string
	SubscriptionsEnabled bool
}

// VendorConfig is the access configuration of one third party API.
type VendorConfig struct {
	URL      string
	Username string
	Password string
	APIToken string
}

// Config is the full service configuration, loaded from environment
// variables with development defaults.
type Config struct {
	Server struct {
		Addr string
	}

	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Fiware   FiwareConfig

	Imports struct {
		IntervalMinutes int
		LookbackDays    int
	}

	Credentials struct {
		TTLMinutes int
	}

	ImageStorage struct {
		Root string
	}

	SoilScout  VendorConfig
	Weenat     VendorConfig
	Agvolution VendorConfig
	Sensoterra VendorConfig
	Farm21     VendorConfig

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Server.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "fivegla")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "5gla-sensor-integration")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")

	cfg.Fiware.BrokerURL = getEnv("FIWARE_BROKER_URL", "http://localhost:1026")
	cfg.Fiware.NotificationURLs = getEnvList("FIWARE_NOTIFICATION_URLS", nil)
	cfg.Fiware.SubscriptionsEnabled = getEnvBool("FIWARE_SUBSCRIPTIONS_ENABLED", true)

	cfg.Imports.IntervalMinutes = getEnvInt("IMPORT_INTERVAL_MINUTES", 60)
	cfg.Imports.LookbackDays = getEnvInt("IMPORT_LOOKBACK_DAYS", 14)

	cfg.Credentials.TTLMinutes = getEnvInt("CREDENTIALS_TTL_MINUTES", 60)

	cfg.ImageStorage.Root = getEnv("IMAGE_STORAGE_ROOT", "/var/lib/5gla/images")

	cfg.SoilScout.URL = getEnv("SOILSCOUT_URL", "https://soilscout.eu/api/v1")
	cfg.SoilScout.Username = getEnv("SOILSCOUT_USERNAME", "")
	cfg.SoilScout.Password = getEnv("SOILSCOUT_PASSWORD", "")

	cfg.Weenat.URL = getEnv("WEENAT_URL", "https://api.weenat.com")
	cfg.Weenat.APIToken = getEnv("WEENAT_API_TOKEN", "")

	cfg.Agvolution.URL = getEnv("AGVOLUTION_URL", "https://live.agvolution.com/api")
	cfg.Agvolution.APIToken = getEnv("AGVOLUTION_API_TOKEN", "")

	cfg.Sensoterra.URL = getEnv("SENSOTERRA_URL", "https://monitoring.sensoterra.com/api/v3")
	cfg.Sensoterra.Username = getEnv("SENSOTERRA_EMAIL", "")
	cfg.Sensoterra.Password = getEnv("SENSOTERRA_PASSWORD", "")

	cfg.Farm21.URL = getEnv("FARM21_URL", "https://api.farm21.com/api/v1")
	cfg.Farm21.APIToken = getEnv("FARM21_API_TOKEN", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Fiware.SubscriptionsEnabled && len(cfg.Fiware.NotificationURLs) == 0 {
		return nil, fmt.Errorf("FIWARE_NOTIFICATION_URLS must be set when subscriptions are enabled")
	}

	return cfg, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
