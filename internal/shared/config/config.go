package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StripeConfig holds Stripe API configuration.
type StripeConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BillingConfig holds subscription billing configuration.
type BillingConfig struct {
	// SkipTrialIfSubscribedBefore skips the trial for customers whose previous
	// subscription ended fewer than this many days ago. Zero disables the check.
	SkipTrialIfSubscribedBefore int `mapstructure:"skip_trial_if_subscribed_before"`

	// LockTTL bounds how long a per-billable advisory lock is held.
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	Products []ProductConfig `mapstructure:"products"`
}

// ProductConfig describes one billable product type and its plans.
type ProductConfig struct {
	Type           string       `mapstructure:"type"` // "user" or "team"
	ChargesPerSeat bool         `mapstructure:"charges_per_seat"`
	Plans          []PlanConfig `mapstructure:"plans"`
}

// PlanConfig describes a single pricing plan.
type PlanConfig struct {
	ID            string `mapstructure:"id"`
	Name          string `mapstructure:"name"`
	StripePriceID string `mapstructure:"stripe_price_id"`
	TrialDays     int    `mapstructure:"trial_days"`
	Active        bool   `mapstructure:"active"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/loopbill")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults and environment only.
	}

	v.SetEnvPrefix("LOOPBILL")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Billing.SkipTrialIfSubscribedBefore < 0 {
		return fmt.Errorf("billing.skip_trial_if_subscribed_before must not be negative")
	}
	for _, p := range c.Billing.Products {
		if p.Type == "" {
			return fmt.Errorf("billing.products entry is missing a type")
		}
		for _, plan := range p.Plans {
			if plan.ID == "" || plan.StripePriceID == "" {
				return fmt.Errorf("billing product %q has a plan without id or stripe_price_id", p.Type)
			}
			if plan.TrialDays < 0 {
				return fmt.Errorf("plan %q has negative trial_days", plan.ID)
			}
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "loopbill")
	v.SetDefault("database.database", "loopbill")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("billing.skip_trial_if_subscribed_before", 0)
	v.SetDefault("billing.lock_ttl", 30*time.Second)

	v.SetDefault("auth.issuer", "loopbill")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
