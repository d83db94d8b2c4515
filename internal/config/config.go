package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the messaging engine.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Session SessionConfig
	Remote  RemoteConfig
	Storage StorageConfig
	Timers  TimerConfig
	Redis   RedisConfig
	Push    PushConfig
}

type SessionConfig struct {
	UserID      string
	Environment string
}

type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type StorageConfig struct {
	DataDir string
}

type TimerConfig struct {
	ScheduleInterval time.Duration
	TypingExpiry     time.Duration
	TypingDebounce   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	// SubscriptionJSON is the browser push subscription for this session,
	// serialized as JSON. Empty disables platform alerts.
	SubscriptionJSON string
}

// LoadConfig loads configuration from environment variables.
// Defaults can be set here if needed.
func LoadConfig() (*Config, error) {
	return &Config{
		Session: SessionConfig{
			UserID:      getEnv("CHAT_USER_ID", ""),
			Environment: getEnv("APP_ENV", "development"),
		},
		Remote: RemoteConfig{
			BaseURL: getEnv("CHAT_API_URL", "http://localhost:8080"),
			Token:   getEnv("CHAT_API_TOKEN", ""),
			Timeout: getEnvAsDuration("CHAT_API_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			DataDir: getEnv("CHAT_DATA_DIR", "./data/drafts"),
		},
		Timers: TimerConfig{
			ScheduleInterval: getEnvAsDuration("SCHEDULE_INTERVAL", time.Minute),
			TypingExpiry:     getEnvAsDuration("TYPING_EXPIRY", 3*time.Second),
			TypingDebounce:   getEnvAsDuration("TYPING_DEBOUNCE", time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Push: PushConfig{
			VAPIDPublicKey:   getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey:  getEnv("VAPID_PRIVATE_KEY", ""),
			Subscriber:       getEnv("VAPID_SUBSCRIBER", "mailto:ops@deskwire.local"),
			SubscriptionJSON: getEnv("PUSH_SUBSCRIPTION", ""),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
