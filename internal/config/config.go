package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	LogLevel      string
	ServerAddress string

	BackendBaseURL string
	BackendTimeout time.Duration

	RealtimeTransport string
	MQTTBrokerURL     string
	MQTTClientID      string
	MQTTTopicPrefix   string
	MQTTUsername      string
	MQTTPassword      string
	AckTimeout        time.Duration
	AckEarlyExit      time.Duration

	RedisAddress  string
	RedisUsername string
	RedisPassword string
	MonthCacheTTL time.Duration

	DatabaseURL    string
	MigrationsPath string
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Environment:       getEnv("APP_ENV", "production"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServerAddress:     getEnv("SERVER_ADDRESS", ":8080"),
		BackendBaseURL:    strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
		RealtimeTransport: strings.ToLower(getEnv("REALTIME_TRANSPORT", TransportWebSocket)),
		MQTTBrokerURL:     getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "masjid-console"),
		MQTTTopicPrefix:   getEnv("MQTT_TOPIC_PREFIX", "masjid/displays"),
		MQTTUsername:      os.Getenv("MQTT_USERNAME"),
		MQTTPassword:      os.Getenv("MQTT_PASSWORD"),
		RedisAddress:      os.Getenv("REDIS_ADDRESS"),
		RedisUsername:     os.Getenv("REDIS_USERNAME"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}
	switch cfg.RealtimeTransport {
	case TransportWebSocket, TransportMQTT:
	default:
		return nil, fmt.Errorf("REALTIME_TRANSPORT must be %q or %q, got %q", TransportWebSocket, TransportMQTT, cfg.RealtimeTransport)
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"BACKEND_TIMEOUT", 10 * time.Second, &cfg.BackendTimeout},
		{"ACK_TIMEOUT", 15 * time.Second, &cfg.AckTimeout},
		{"ACK_EARLY_EXIT", 2 * time.Second, &cfg.AckEarlyExit},
		{"MONTH_CACHE_TTL", 5 * time.Minute, &cfg.MonthCacheTTL},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
