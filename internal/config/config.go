// config - источник загрузки конфигурации клиента pomnesh.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Feeds       FeedsConfig       `yaml:"feeds"`
}

// APIConfig — параметры бэкенда pomnesh.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"https://pomnesh-backend.hps-2.ru/api/v1"`
	Timeout time.Duration `yaml:"timeout"  env:"API_TIMEOUT"  env-default:"30s"`
}

// CredentialsConfig — хранилище учётных данных и сроки их жизни.
// Backend: file (по умолчанию), redis или memory (эфемерная сессия).
type CredentialsConfig struct {
	Backend    string        `yaml:"backend"     env:"CRED_BACKEND"     env-default:"file"`
	Path       string        `yaml:"path"        env:"CRED_PATH"        env-default:""`
	RedisURL   string        `yaml:"redis_url"   env:"CRED_REDIS_URL"   env-default:""`
	AccessTTL  time.Duration `yaml:"access_ttl"  env:"CRED_ACCESS_TTL"  env-default:"168h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"CRED_REFRESH_TTL" env-default:"720h"`
	UserIDTTL  time.Duration `yaml:"user_id_ttl" env:"CRED_USER_ID_TTL" env-default:"720h"`
}

// FeedsConfig — размеры страниц лент.
type FeedsConfig struct {
	ChatPageSize       int `yaml:"chat_page_size"       env:"FEEDS_CHAT_PAGE_SIZE"       env-default:"20"`
	AttachmentPageSize int `yaml:"attachment_page_size" env:"FEEDS_ATTACHMENT_PAGE_SIZE" env-default:"24"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}
	return &cfg, nil
}
