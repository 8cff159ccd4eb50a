package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const envPrefix = "journal"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	Migrations string `mapstructure:"migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// AuthConfig holds session and login throttling settings
type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	LoginRate  float64       `mapstructure:"login_rate"`
	LoginBurst int           `mapstructure:"login_burst"`
}

// FeesConfig holds the cost model defaults
type FeesConfig struct {
	DefaultDiscount float64 `mapstructure:"default_discount"`
}

// StatsConfig holds statistics settings
type StatsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables take the form JOURNAL_DATABASE_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "tradejournal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations", "file://db/migrations")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", "10m")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "trade-journal-events")
	v.SetDefault("kafka.group_id", "")

	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("auth.login_rate", 1)
	v.SetDefault("auth.login_burst", 5)

	v.SetDefault("fees.default_discount", 0.28)

	v.SetDefault("stats.timezone", "UTC")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var err error
	if c.Server.Port == "" {
		err = multierr.Append(err, errors.New("server.port is required"))
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		err = multierr.Append(err, errors.New("database.host and database.dbname are required"))
	}
	if c.Redis.Addr == "" {
		err = multierr.Append(err, errors.New("redis.addr is required"))
	}
	if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
		err = multierr.Append(err, errors.New("kafka.brokers and kafka.topic are required"))
	}
	if c.Auth.SessionTTL <= 0 {
		err = multierr.Append(err, errors.New("auth.session_ttl must be positive"))
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		err = multierr.Append(err, errors.New("auth.login_rate and auth.login_burst must be positive"))
	}
	if c.Fees.DefaultDiscount <= 0 || c.Fees.DefaultDiscount > 1 {
		err = multierr.Append(err, fmt.Errorf("fees.default_discount must be in (0, 1], got %v", c.Fees.DefaultDiscount))
	}
	if _, lerr := time.LoadLocation(c.Stats.Timezone); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("stats.timezone %q is invalid: %w", c.Stats.Timezone, lerr))
	}
	return err
}

// DiscountDecimal returns the configured fee discount as a decimal
func (f FeesConfig) DiscountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(f.DefaultDiscount)
}

// Location returns the time zone statistics are computed in
func (s StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Address returns the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}
