package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	SendGrid SendGridConfig
	Reminder ReminderConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

// RedisConfig is optional. An empty Address disables the session cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

type SessionConfig struct {
	ExpiryHours int
	CacheTTL    time.Duration
}

// SendGridConfig holds outgoing mail settings. Without an API key reminder
// emails are written to the log instead of being sent.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type ReminderConfig struct {
	Enabled     bool
	Schedule    string
	WindowStart time.Duration
	WindowEnd   time.Duration
	Retention   time.Duration
	LeadMinutes int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads configuration from the given env file and the process
// environment. A missing file is not an error.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "boardroom-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("SESSION_CACHE_TTL_SECONDS", 300)
	v.SetDefault("SENDGRID_FROM_NAME", "Boardroom Booking")
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_SCHEDULE", "*/5 * * * *")
	v.SetDefault("REMINDER_WINDOW_START_MINUTES", 15)
	v.SetDefault("REMINDER_WINDOW_END_MINUTES", 20)
	v.SetDefault("REMINDER_RETENTION_MINUTES", 60)
	v.SetDefault("REMINDER_LEAD_MINUTES", 15)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Port:        v.GetString("PORT"),
			Debug:       v.GetBool("DEBUG"),
			LogPath:     v.GetString("LOG_PATH"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		Session: SessionConfig{
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
			CacheTTL:    time.Duration(v.GetInt("SESSION_CACHE_TTL_SECONDS")) * time.Second,
		},
		SendGrid: SendGridConfig{
			APIKey:    v.GetString("SENDGRID_API_KEY"),
			FromEmail: v.GetString("SENDGRID_FROM_EMAIL"),
			FromName:  v.GetString("SENDGRID_FROM_NAME"),
		},
		Reminder: ReminderConfig{
			Enabled:     v.GetBool("REMINDER_ENABLED"),
			Schedule:    v.GetString("REMINDER_SCHEDULE"),
			WindowStart: minutes(v.GetInt("REMINDER_WINDOW_START_MINUTES")),
			WindowEnd:   minutes(v.GetInt("REMINDER_WINDOW_END_MINUTES")),
			Retention:   minutes(v.GetInt("REMINDER_RETENTION_MINUTES")),
			LeadMinutes: v.GetInt("REMINDER_LEAD_MINUTES"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
	}

	return config, nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
