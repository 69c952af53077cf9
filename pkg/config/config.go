package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Server struct {
	Host        string `yaml:"host" env:"API_HOST" env-default:"0.0.0.0"`
	Port        string `yaml:"port" env:"API_PORT" env-default:"8080"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"*"`
}

type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path" env:"DB_PATH" env-default:"./data/bookshelf.db"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"INFO"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

type Limits struct {
	SearchResults int `yaml:"search_results" env:"SEARCH_LIMIT" env-default:"10"`
	TxRetries     int `yaml:"tx_retries" env:"TX_RETRIES" env-default:"5"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Limits   Limits   `yaml:"limits"`
}

// Load reads .env, then the YAML file at path (if present), then the
// environment. Environment values win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getEnvOrDefault("CONFIG_PATH", "config.yml")
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Limits.SearchResults <= 0 {
		c.Limits.SearchResults = 10
	}
	if c.Limits.TxRetries <= 0 {
		c.Limits.TxRetries = 1
	}
	return nil
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
