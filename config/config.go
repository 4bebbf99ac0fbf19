package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// GatewayConfig groups the per-provider credential blocks.
// TestMode substitutes synthetic successful responses for live vendor
// calls; sandbox operation needs no real credentials.
type GatewayConfig struct {
	TestMode    bool          `mapstructure:"test_mode"`
	CallbackURL string        `mapstructure:"callback_url"`
	ReturnURL   string        `mapstructure:"return_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Swychr      SwychrConfig  `mapstructure:"swychr"`
	Fapshi      FapshiConfig  `mapstructure:"fapshi"`
	Campay      CampayConfig  `mapstructure:"campay"`
	MTNMoMo     MTNMoMoConfig `mapstructure:"mtn_momo"`
	Stripe      StripeConfig  `mapstructure:"stripe"`
}

type SwychrConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Email         string `mapstructure:"email"`
	Password      string `mapstructure:"password"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type FapshiConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIUser       string `mapstructure:"api_user"`
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type CampayConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	WebhookKey string `mapstructure:"webhook_key"`
}

type MTNMoMoConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	SubscriptionKey string `mapstructure:"subscription_key"`
	APIUser         string `mapstructure:"api_user"`
	APIKey          string `mapstructure:"api_key"`
	TargetEnv       string `mapstructure:"target_env"`
	CheckoutURL     string `mapstructure:"checkout_url"`
	CallbackToken   string `mapstructure:"callback_token"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// RatesConfig configures the exchange rate cache.
type RatesConfig struct {
	SourceURL string        `mapstructure:"source_url"`
	APIKey    string        `mapstructure:"api_key"`
	MaxAge    time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PH_ (Payment Hub).
// Nested keys use underscore: PH_DATABASE_HOST, PH_GATEWAY_TEST_MODE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payment_hub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "payment-hub")
	v.SetDefault("gateway.test_mode", false)
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("gateway.callback_url", "")
	v.SetDefault("gateway.return_url", "")
	v.SetDefault("gateway.swychr.base_url", "https://api.accountpe.com/api/payin")
	v.SetDefault("gateway.fapshi.base_url", "https://live.fapshi.com")
	v.SetDefault("gateway.campay.base_url", "https://demo.campay.net")
	v.SetDefault("gateway.mtn_momo.base_url", "https://sandbox.momodeveloper.mtn.com")
	v.SetDefault("gateway.mtn_momo.target_env", "sandbox")
	v.SetDefault("rates.source_url", "https://open.er-api.com/v6/latest/USD")
	v.SetDefault("rates.max_age", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PH_GATEWAY_STRIPE_SECRET_KEY -> gateway.stripe.secret_key
	v.SetEnvPrefix("PH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
