package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Booking    BookingConfig    `mapstructure:"booking"`
	Reminder   ReminderConfig   `mapstructure:"reminder"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// InternalSecret authenticates service-to-service calls such as the
	// payment webhook. Empty disables the internal routes.
	InternalSecret string `mapstructure:"internal_secret"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// BookingConfig carries deployment-level booking policy. The clinic runs on
// a single fixed UTC offset; full IANA timezone resolution is deliberately
// not supported.
type BookingConfig struct {
	ClinicUTCOffset string `mapstructure:"clinic_utc_offset"`
	ConsultationFee int    `mapstructure:"consultation_fee"`
	FeeCurrency     string `mapstructure:"fee_currency"`
}

type ReminderConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	CronSecret string        `mapstructure:"cron_secret"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MonitoringConfig struct {
	MetricsPrefix string `mapstructure:"metrics_prefix"`
}

// Location resolves the configured fixed offset ("+05:30") into a
// time.Location.
func (c BookingConfig) Location() (*time.Location, error) {
	var sign rune
	var h, m int
	if _, err := fmt.Sscanf(c.ClinicUTCOffset, "%c%d:%d", &sign, &h, &m); err != nil {
		return nil, fmt.Errorf("invalid clinic_utc_offset %q: %w", c.ClinicUTCOffset, err)
	}
	offset := h*3600 + m*60
	switch sign {
	case '+':
	case '-':
		offset = -offset
	default:
		return nil, fmt.Errorf("invalid clinic_utc_offset %q: missing sign", c.ClinicUTCOffset)
	}
	return time.FixedZone("CLINIC", offset), nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	viper.SetDefault("booking.clinic_utc_offset", "+05:30")
	viper.SetDefault("booking.consultation_fee", 499)
	viper.SetDefault("booking.fee_currency", "INR")
	viper.SetDefault("reminder.interval", 5*time.Minute)
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 50)
	viper.SetDefault("rate_limit.burst", 100)
	viper.SetDefault("monitoring.metrics_prefix", "furrie_api")
}
