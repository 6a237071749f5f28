package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	SecureCookies      bool          `yaml:"secure_cookies"`
}

// SessionConfig selects the session snapshot backend: memory, redis, mongo or postgres.
type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDB       string        `yaml:"mongo_db"`
	PostgresDSN   string        `yaml:"postgres_dsn"`
}

type AuthConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// SQLiteCatalogSize is the number of rows the sqlite catalog migrations seed.
const SQLiteCatalogSize = 300

// CatalogConfig selects the catalog source: generated or sqlite. Size only
// sizes the generated catalog; the sqlite catalog always holds SQLiteCatalogSize items.
type CatalogConfig struct {
	Source string `yaml:"source"`
	Size   int    `yaml:"size"`
	DBPath string `yaml:"db_path"`
}

type EventsConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		Session: SessionConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			MongoURI:  "mongodb://localhost:27017",
			MongoDB:   "storefront",
		},
		Auth: AuthConfig{
			Endpoint: "http://localhost:9000/url",
			Timeout:  10 * time.Second,
			TokenTTL: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Source: "generated",
			Size:   300,
			DBPath: "./catalog.db",
		},
		Events: EventsConfig{
			KafkaTopic: "storefront-sessions",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides. An empty path yields defaults; a path that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "redis", "mongo", "postgres":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Catalog.Source {
	case "generated", "sqlite":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Session.Backend == "postgres" && c.Session.PostgresDSN == "" {
		return fmt.Errorf("postgres session backend requires a dsn")
	}
	if c.Catalog.Size <= 0 {
		return fmt.Errorf("catalog size must be positive")
	}
	if c.Catalog.Source == "sqlite" && c.Catalog.Size != SQLiteCatalogSize {
		return fmt.Errorf("sqlite catalog is seeded with %d items, size %d is not supported", SQLiteCatalogSize, c.Catalog.Size)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.Session.Backend = getEnv("SESSION_BACKEND", c.Session.Backend)
	c.Session.RedisAddr = getEnv("REDIS_ADDR", c.Session.RedisAddr)
	c.Session.RedisPassword = getEnv("REDIS_PASSWORD", c.Session.RedisPassword)
	c.Session.MongoURI = getEnv("MONGO_URI", c.Session.MongoURI)
	c.Session.MongoDB = getEnv("MONGO_DB_NAME", c.Session.MongoDB)
	c.Session.PostgresDSN = getEnv("POSTGRES_DSN", c.Session.PostgresDSN)
	c.Auth.Endpoint = getEnv("AUTH_ENDPOINT", c.Auth.Endpoint)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Catalog.Source = getEnv("CATALOG_SOURCE", c.Catalog.Source)
	c.Catalog.DBPath = getEnv("CATALOG_DB_PATH", c.Catalog.DBPath)
	c.Events.KafkaTopic = getEnv("KAFKA_TOPIC", c.Events.KafkaTopic)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Events.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if c.HTTP.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", c.HTTP.RequestTimeout); err != nil {
		return err
	}
	if c.Auth.Timeout, err = getDuration("AUTH_TIMEOUT", c.Auth.Timeout); err != nil {
		return err
	}
	if c.Auth.TokenTTL, err = getDuration("TOKEN_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}
	if v := os.Getenv("CATALOG_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_SIZE: %w", err)
		}
		c.Catalog.Size = n
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
