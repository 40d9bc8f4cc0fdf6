package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/lpernett/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Values come from the
// environment (optionally seeded by a .env file); a YAML file pointed at by
// CONFIG_FILE overrides the environment for any field it sets.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`

	AccessSecret      string `yaml:"access_secret"`
	RefreshSecret     string `yaml:"refresh_secret"`
	AccessExpMinutes  int    `yaml:"access_expiration_minutes"`
	RefreshExpHours   int    `yaml:"refresh_expiration_hours"`
	RecoveryTTLHours  int    `yaml:"recovery_token_ttl_hours"`
	AuthRatePerMinute int    `yaml:"auth_rate_per_minute"`

	BrevoAPIKey string `yaml:"brevo_api_key"`
	MailSender  string `yaml:"mail_sender"`

	LogLevel string `yaml:"log_level"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Addr:              getenv("ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AccessSecret:      os.Getenv("ACCESS_SECRET"),
		RefreshSecret:     os.Getenv("REFRESH_SECRET"),
		AccessExpMinutes:  getenvInt("ACCESS_EXPIRATION", 60),
		RefreshExpHours:   getenvInt("REFRESH_EXPIRATION", 24*7),
		RecoveryTTLHours:  getenvInt("RECOVERY_TOKEN_TTL", 24),
		AuthRatePerMinute: getenvInt("AUTH_RATE_PER_MINUTE", 10),
		BrevoAPIKey:       os.Getenv("BREVO_API_KEY"),
		MailSender:        getenv("MAIL_SENDER", "no-reply@agrolink.io"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET and REFRESH_SECRET must be set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
