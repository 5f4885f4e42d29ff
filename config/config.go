package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Auth / identity provider
	Auth AuthConfig `mapstructure:"auth"`

	// GeoIP
	GeoIP GeoIPConfig `mapstructure:"geoip"`

	// Lookup cache
	Cache CacheConfig `mapstructure:"cache"`

	// Shortener behaviour
	Shortener ShortenerConfig `mapstructure:"shortener"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

type AuthConfig struct {
	// GoogleClientID is the OAuth audience expected on incoming ID tokens.
	GoogleClientID string `mapstructure:"google_client_id"`
	// JWTSecret signs the API tokens issued after Google sign-in.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the API token lifetime, e.g. "24h".
	TokenTTL string `mapstructure:"token_ttl"`
}

type GeoIPConfig struct {
	// DBPath points at a GeoLite2 City database. Empty disables geolocation
	// and clicks are recorded with "Unknown".
	DBPath string `mapstructure:"db_path"`
}

type CacheConfig struct {
	// LinkTTL is the lookup-cache expiry for alias records, e.g. "1h".
	LinkTTL string `mapstructure:"link_ttl"`
}

type ShortenerConfig struct {
	// BaseURL prefixes aliases in shorten responses.
	BaseURL string `mapstructure:"base_url"`
	// RateLimitPerMinute caps shorten requests per account per minute.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Auth
	v.BindEnv("auth.google_client_id", "GOOGLE_CLIENT_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_ttl", "TOKEN_TTL")

	// GeoIP
	v.BindEnv("geoip.db_path", "GEOIP_DB_PATH")

	// Cache
	v.BindEnv("cache.link_ttl", "CACHE_LINK_TTL")

	// Shortener
	v.BindEnv("shortener.base_url", "BASE_URL")
	v.BindEnv("shortener.rate_limit_per_minute", "SHORTEN_RATE_LIMIT")
}
