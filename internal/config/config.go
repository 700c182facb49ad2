package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "STOREFRONT_"

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

const minSecretLen = 32

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Origin    OriginConfig    `koanf:"origin"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Site      SiteConfig      `koanf:"site"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	HeaderTimeout   time.Duration `koanf:"headertimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type StoreConfig struct {
	Driver   string         `koanf:"driver"`
	Redis    RedisConfig    `koanf:"redis"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type PostgresConfig struct {
	URL      string `koanf:"url"`
	Migrate  bool   `koanf:"migrate"`
	MaxConns int32  `koanf:"maxconns"`
}

type OriginConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

type SiteConfig struct {
	Dir string `koanf:"dir"`
}

// RateLimitConfig holds per-IP request budgets per Window.
type RateLimitConfig struct {
	Window   time.Duration `koanf:"window"`
	Origins  int           `koanf:"origins"`
	Login    int           `koanf:"login"`
	Register int           `koanf:"register"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":             8080,
		"server.headertimeout":    "5s",
		"server.shutdowntimeout":  "10s",
		"log.level":               "info",
		"store.driver":            DriverMemory,
		"store.redis.addr":        "localhost:6379",
		"store.redis.db":          0,
		"store.redis.prefix":      "gragolf:",
		"store.postgres.migrate":  true,
		"store.postgres.maxconns": 10,
		"origin.ttl":              "720h",
		"metrics.enabled":         true,
		"site.dir":                "./site",
		"ratelimit.window":        "1m",
		"ratelimit.origins":       30,
		"ratelimit.login":         10,
		"ratelimit.register":      5,
	}
}

// Load reads defaults, then configFile (yaml), then envFile, then the process
// environment. Later sources win. Missing files are skipped.
func Load(configFile, envFile string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			m := make(map[string]any, len(vars))
			for key, value := range vars {
				if !strings.HasPrefix(key, EnvPrefix) {
					continue
				}
				m[envKey(key)] = value
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return cfg, fmt.Errorf("load %s: %w", envFile, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps STOREFRONT_STORE_REDIS_ADDR to store.redis.addr.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func (c Config) Validate() error {
	return errors.Join(
		c.Server.Validate(),
		c.Log.Validate(),
		c.Store.Validate(),
		c.Origin.Validate(),
		c.RateLimit.Validate(),
	)
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Port)
	}
	return nil
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Level)
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis driver")
		}
		return nil
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return errors.New("store.postgres.url is required for the postgres driver")
		}
		return nil
	}
	return fmt.Errorf("store.driver must be memory, redis or postgres, got %q", c.Driver)
}

func (c OriginConfig) Validate() error {
	if len(c.Secret) < minSecretLen {
		return fmt.Errorf("origin.secret is required and must be at least %d chars", minSecretLen)
	}
	if c.TTL <= 0 {
		return errors.New("origin.ttl must be positive")
	}
	return nil
}

func (c RateLimitConfig) Validate() error {
	if c.Window <= 0 {
		return errors.New("ratelimit.window must be positive")
	}
	if c.Origins < 0 || c.Login < 0 || c.Register < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}
