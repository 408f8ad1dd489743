package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Payments PaymentsConfig `yaml:"payments"`
	Offers   OffersConfig   `yaml:"offers"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	OfferEventsTopic   string   `yaml:"offer_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type PaymentsConfig struct {
	// FeePercent is the handling fee charged on top of the share amount.
	FeePercent        float64        `yaml:"fee_percent"`
	PendingTTLMinutes int            `yaml:"pending_ttl_minutes"`
	Card              ProviderConfig `yaml:"card"`
	Crypto            ProviderConfig `yaml:"crypto"`
}

type ProviderConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type OffersConfig struct {
	OpenListCacheTTL int `yaml:"open_list_cache_ttl_seconds"`
	AcceptLockTTL    int `yaml:"accept_lock_ttl_seconds"`
}

type WorkerConfig struct {
	SweepMinutes int `yaml:"sweep_minutes"`
}

const DefaultFeePercent = 7.5

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Payments.FeePercent == 0 {
		cfg.Payments.FeePercent = DefaultFeePercent
	}

	return &cfg, nil
}
