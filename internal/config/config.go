// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxWebhookBytes int64         `yaml:"max_webhook_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type StripeConfig struct {
	SecretKey       string        `yaml:"secret_key"`
	WebhookSecret   string        `yaml:"webhook_secret"`
	BaseURL         string        `yaml:"base_url"`
	SignatureWindow time.Duration `yaml:"signature_window"`
	Timeout         time.Duration `yaml:"timeout"`

	// Handed to stripe-go; retried POSTs reuse one idempotency key.
	MaxNetworkRetries int64 `yaml:"max_network_retries"`
}

// PlanPriceConfig maps one catalog plan to the provider's price object.
type PlanPriceConfig struct {
	PriceRef string `yaml:"price_ref"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
}

type PaymentConfig struct {
	Provider   string                     `yaml:"provider"` // stripe | noop
	Currency   string                     `yaml:"currency"`
	Stripe     StripeConfig               `yaml:"stripe"`
	SuccessURL string                     `yaml:"success_url"`
	CancelURL  string                     `yaml:"cancel_url"`
	Plans      map[string]PlanPriceConfig `yaml:"plans"`
	Breaker    BreakerConfig              `yaml:"breaker"`
}

// PriceRef returns the provider price id configured for planID.
func (p PaymentConfig) PriceRef(planID string) (string, bool) {
	pc, ok := p.Plans[planID]
	if !ok || pc.PriceRef == "" {
		return "", false
	}
	return pc.PriceRef, true
}

type TipsConfig struct {
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
}

type SchedulerConfig struct {
	ReconcileCron   string        `yaml:"reconcile_cron"`
	ExpiryCheckCron string        `yaml:"expiry_check_cron"`
	StaleAfter      time.Duration `yaml:"stale_after"`
	ExpireAfter     time.Duration `yaml:"expire_after"`
	BatchSize       int           `yaml:"batch_size"`
	Workers         int           `yaml:"workers"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Payment   PaymentConfig   `yaml:"payment"`
	Tips      TipsConfig      `yaml:"tips"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, expanding ${VAR} references from the
// environment. A .env file in the working directory is loaded first when present.
func LoadConfig(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies defaults and validates required keys.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	cfg.Server.ReadTimeout = orDefault(cfg.Server.ReadTimeout, 10*time.Second)
	cfg.Server.WriteTimeout = orDefault(cfg.Server.WriteTimeout, 15*time.Second)
	cfg.Server.RequestTimeout = orDefault(cfg.Server.RequestTimeout, 10*time.Second)
	cfg.Server.ShutdownTimeout = orDefault(cfg.Server.ShutdownTimeout, 15*time.Second)
	if cfg.Server.MaxWebhookBytes <= 0 {
		cfg.Server.MaxWebhookBytes = 1 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "stripe"
	}
	cfg.Payment.Provider = strings.ToLower(cfg.Payment.Provider)
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "JPY"
	}
	cfg.Payment.Currency = strings.ToUpper(cfg.Payment.Currency)
	if cfg.Payment.Stripe.BaseURL == "" {
		cfg.Payment.Stripe.BaseURL = "https://api.stripe.com"
	}
	cfg.Payment.Stripe.SignatureWindow = orDefault(cfg.Payment.Stripe.SignatureWindow, 5*time.Minute)
	cfg.Payment.Stripe.Timeout = orDefault(cfg.Payment.Stripe.Timeout, 15*time.Second)
	if cfg.Payment.Stripe.MaxNetworkRetries == 0 {
		cfg.Payment.Stripe.MaxNetworkRetries = 2
	}
	if cfg.Payment.Breaker.MaxRequests == 0 {
		cfg.Payment.Breaker.MaxRequests = 1
	}
	cfg.Payment.Breaker.Interval = orDefault(cfg.Payment.Breaker.Interval, time.Minute)
	cfg.Payment.Breaker.Timeout = orDefault(cfg.Payment.Breaker.Timeout, 30*time.Second)
	if cfg.Payment.Breaker.ConsecutiveFailures == 0 {
		cfg.Payment.Breaker.ConsecutiveFailures = 5
	}

	if cfg.Tips.RateLimit <= 0 {
		cfg.Tips.RateLimit = 20
	}
	cfg.Tips.RateLimitWindow = orDefault(cfg.Tips.RateLimitWindow, time.Minute)

	if cfg.Scheduler.ReconcileCron == "" {
		cfg.Scheduler.ReconcileCron = "0 */5 * * * *"
	}
	if cfg.Scheduler.ExpiryCheckCron == "" {
		cfg.Scheduler.ExpiryCheckCron = "0 0 * * * *"
	}
	cfg.Scheduler.StaleAfter = orDefault(cfg.Scheduler.StaleAfter, 15*time.Minute)
	cfg.Scheduler.ExpireAfter = orDefault(cfg.Scheduler.ExpireAfter, 24*time.Hour)
	if cfg.Scheduler.BatchSize <= 0 {
		cfg.Scheduler.BatchSize = 100
	}
	if cfg.Scheduler.Workers <= 0 {
		cfg.Scheduler.Workers = 4
	}
}

func (cfg *Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Runtime.Dev {
		return errors.New("auth.jwt_secret is required")
	}
	switch cfg.Payment.Provider {
	case "stripe":
		if !cfg.Runtime.Dev {
			if cfg.Payment.Stripe.SecretKey == "" {
				return errors.New("payment.stripe.secret_key is required")
			}
			if cfg.Payment.Stripe.WebhookSecret == "" {
				return errors.New("payment.stripe.webhook_secret is required")
			}
		}
	case "noop":
	default:
		return fmt.Errorf("payment.provider %q is not supported", cfg.Payment.Provider)
	}
	if cfg.Scheduler.ExpireAfter < cfg.Scheduler.StaleAfter {
		return errors.New("scheduler.expire_after must not be shorter than scheduler.stale_after")
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
