// Package config loads marketplace service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Docstore DocstoreConfig `yaml:"docstore"`
	Auth      AuthConfig      `yaml:"auth"`
	Wallet    WalletConfig    `yaml:"wallet"`
	HTTP      HTTPConfig      `yaml:"http"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// StorageConfig selects and configures the persistence backend.
// Mode is one of "memory", "postgres", or "docstore".
type StorageConfig struct {
	Mode            string `yaml:"mode"`
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
	Seed            bool   `yaml:"seed"`
}

// DocstoreConfig points at the hosted document-store backend.
type DocstoreConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	ServiceKey string `yaml:"service_key"`
}

// AuthConfig configures the auth pass-through and token validation.
type AuthConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

// WalletConfig configures the wallet provider endpoint.
type WalletConfig struct {
	RPCURL              string `yaml:"rpc_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// AnalyticsConfig configures usage event delivery.
type AnalyticsConfig struct {
	Endpoint string `yaml:"endpoint"`
	Enabled  bool   `yaml:"enabled"`
}

// HTTPConfig holds cross-cutting HTTP settings.
type HTTPConfig struct {
	AllowedOrigins    []string `yaml:"allowed_origins"`
	RequestsPerSecond int      `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// Load reads config/marketplace.yaml if present and applies environment
// overrides on top of defaults.
func Load() (*Config, error) {
	return LoadFromPath(os.Getenv("CAMP_CONFIG"))
}

// LoadFromPath reads configuration from a specific file. An empty path or a
// missing file yields defaults plus environment overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config/marketplace.yaml"
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	if cfg.Storage.Mode == "postgres" && cfg.Storage.DSN == "" {
		return nil, fmt.Errorf("storage mode postgres requires a dsn")
	}
	if cfg.Storage.Mode == "docstore" && cfg.Docstore.URL == "" {
		return nil, fmt.Errorf("storage mode docstore requires a docstore url")
	}

	return cfg, nil
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Mode: "memory",
			Seed: true,
		},
		Wallet: WalletConfig{PollIntervalSeconds: 5},
		HTTP: HTTPConfig{
			AllowedOrigins:    []string{"*"},
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CAMP_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CAMP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CAMP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAMP_STORAGE_MODE"); v != "" {
		cfg.Storage.Mode = v
	}
	if v := os.Getenv("CAMP_DATABASE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("CAMP_DOCSTORE_URL"); v != "" {
		cfg.Docstore.URL = v
	}
	if v := os.Getenv("CAMP_DOCSTORE_API_KEY"); v != "" {
		cfg.Docstore.APIKey = v
	}
	if v := os.Getenv("CAMP_DOCSTORE_SERVICE_KEY"); v != "" {
		cfg.Docstore.ServiceKey = v
	}
	if v := os.Getenv("CAMP_AUTH_URL"); v != "" {
		cfg.Auth.URL = v
	}
	if v := os.Getenv("CAMP_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("CAMP_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CAMP_WALLET_RPC_URL"); v != "" {
		cfg.Wallet.RPCURL = v
	}
	if v := os.Getenv("CAMP_ANALYTICS_ENDPOINT"); v != "" {
		cfg.Analytics.Endpoint = v
		cfg.Analytics.Enabled = true
	}
}
