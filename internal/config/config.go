package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings for every binary. Values come from an optional YAML
// file, then environment variables override them.
type Config struct {
	HTTPAddr      string        `yaml:"http_addr"`
	WebDir        string        `yaml:"web_dir"`
	DatabaseURL   string        `yaml:"database_url"`
	LedgerTimeout time.Duration `yaml:"ledger_timeout"`
	SeedSample    bool          `yaml:"seed_sample_data"`

	Kafka KafkaConfig `yaml:"kafka"`
	Auth  AuthConfig  `yaml:"auth"`
	SMTP  SMTPConfig  `yaml:"smtp"`
	Alert AlertConfig `yaml:"alert"`
	Log   LogConfig   `yaml:"log"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenExpiry       time.Duration `yaml:"token_expiry"`
	AdminUser         string        `yaml:"admin_user"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	From string `yaml:"from"`
}

type AlertConfig struct {
	Email             string `yaml:"email"`
	LowStockThreshold int    `yaml:"low_stock_threshold"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const MinJWTSecretLength = 32

var ErrJWTSecretTooShort = fmt.Errorf("JWT secret must be at least %d characters", MinJWTSecretLength)

// Default returns the built-in configuration: in-memory stores, no Kafka.
func Default() Config {
	return Config{
		HTTPAddr:      ":8080",
		LedgerTimeout: 5 * time.Second,
		SeedSample:    true,
		Kafka:         KafkaConfig{Topic: "clothing-events"},
		Auth:          AuthConfig{TokenExpiry: 15 * time.Minute, AdminUser: "admin"},
		SMTP:          SMTPConfig{Host: "localhost", Port: "1025", From: "noreply@example.com"},
		Alert:         AlertConfig{LowStockThreshold: 5},
		Log:           LogConfig{Level: "info", Format: "production"},
	}
}

// Load reads path (if non-empty) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	get("HTTP_ADDR", &cfg.HTTPAddr)
	get("WEB_DIR", &cfg.WebDir)
	get("DATABASE_URL", &cfg.DatabaseURL)
	get("KAFKA_TOPIC", &cfg.Kafka.Topic)
	get("JWT_SECRET", &cfg.Auth.JWTSecret)
	get("ADMIN_USER", &cfg.Auth.AdminUser)
	get("ADMIN_PASSWORD_HASH", &cfg.Auth.AdminPasswordHash)
	get("SMTP_HOST", &cfg.SMTP.Host)
	get("SMTP_PORT", &cfg.SMTP.Port)
	get("SMTP_FROM", &cfg.SMTP.From)
	get("ALERT_EMAIL", &cfg.Alert.Email)
	get("LOG_LEVEL", &cfg.Log.Level)
	get("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("LOW_STOCK_THRESHOLD"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOW_STOCK_THRESHOLD: %w", err)
		}
		cfg.Alert.LowStockThreshold = n
	}
	if v, ok := lookup("LEDGER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEDGER_TIMEOUT: %w", err)
		}
		cfg.LedgerTimeout = d
	}
	if v, ok := lookup("SEED_SAMPLE_DATA"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_SAMPLE_DATA: %w", err)
		}
		cfg.SeedSample = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return ErrJWTSecretTooShort
	}
	if c.LedgerTimeout <= 0 {
		return errors.New("ledger timeout must be positive")
	}
	if c.Alert.LowStockThreshold < 0 {
		return errors.New("low stock threshold must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka topic is required when brokers are set")
	}
	return nil
}

// AuthEnabled reports whether catalog writes require an admin token.
func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
