package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"YATUBE_ENV"`
	HTTPAddr string `mapstructure:"YATUBE_HTTP_ADDR"`

	Database DBConfig       `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	Media    MediaConfig    `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type DBConfig struct {
	URL    string `mapstructure:"DATABASE_URL"`
	LogSQL bool   `mapstructure:"YATUBE_DB_LOG"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"YATUBE_REDIS_ADDR"`
	IndexCacheTTL time.Duration `mapstructure:"YATUBE_INDEX_CACHE_TTL"`
}

type MediaConfig struct {
	Root string `mapstructure:"YATUBE_MEDIA_ROOT"`
}

type SecurityConfig struct {
	SessionTTL  time.Duration `mapstructure:"YATUBE_SESSION_TTL"`
	CORSOrigins []string      `mapstructure:"YATUBE_CORS_ORIGINS"`
	// Admin routes are only mounted when AdminToken is set.
	AdminToken string `mapstructure:"YATUBE_ADMIN_TOKEN"`
}

// Load reads .env (if present) and the process environment. Variables
// already set in the environment win over the .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("YATUBE_ENV", "dev")
	v.SetDefault("YATUBE_HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "sqlite://yatube.db")
	v.SetDefault("YATUBE_DB_LOG", false)
	v.SetDefault("YATUBE_REDIS_ADDR", "")
	v.SetDefault("YATUBE_INDEX_CACHE_TTL", "20s")
	v.SetDefault("YATUBE_MEDIA_ROOT", "media")
	v.SetDefault("YATUBE_SESSION_TTL", "336h")
	v.SetDefault("YATUBE_CORS_ORIGINS", "*")
	v.SetDefault("YATUBE_ADMIN_TOKEN", "")

	// Comma separated lists need to be split before unmarshalling
	if origins := v.GetString("YATUBE_CORS_ORIGINS"); origins != "" {
		v.Set("YATUBE_CORS_ORIGINS", splitList(origins))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("invalid YATUBE_ENV %q (must be dev, test or prod)", c.Env)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("YATUBE_HTTP_ADDR is required")
	}
	if !strings.HasPrefix(c.Database.URL, "sqlite://") && !strings.HasPrefix(c.Database.URL, "postgres://") {
		return fmt.Errorf("invalid DATABASE_URL: must start with 'postgres://' or 'sqlite://'")
	}
	if c.Cache.IndexCacheTTL <= 0 {
		return fmt.Errorf("YATUBE_INDEX_CACHE_TTL must be positive")
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("YATUBE_SESSION_TTL must be positive")
	}
	if c.Media.Root == "" {
		return fmt.Errorf("YATUBE_MEDIA_ROOT is required")
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
