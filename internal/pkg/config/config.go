package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	DeviceTokenTTL  time.Duration `env:"DEVICE_TOKEN_TTL,     default=720h"`
	SubmitLockTTL   time.Duration `env:"SUBMIT_LOCK_TTL,      default=60s"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,        default=4"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,     default=15s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:5173"`

	Gateway GatewayConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// GatewayConfig points at the Evanio API.
type GatewayConfig struct {
	BaseURL string        `env:"EVANIO_API_URL,     default=http://localhost:4000/api"`
	Timeout time.Duration `env:"EVANIO_API_TIMEOUT, default=15s"`
}

type MongoConfig struct {
	URI               string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database          string        `env:"MONGO_DB,            default=evanio_checkout"`
	Timeout           time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize       uint64        `env:"MONGO_MAX_POOL_SIZE, default=50"`
	CheckoutRetention time.Duration `env:"CHECKOUT_RETENTION,  default=720h"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,       default=0"`
	SessionTTL time.Duration `env:"SESSION_TTL,    default=720h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		errs = append(errs, errors.New("EVANIO_API_URL is required"))
	}
	if c.DeviceTokenTTL <= 0 {
		errs = append(errs, errors.New("DEVICE_TOKEN_TTL must be positive"))
	}
	// An order submission makes up to two sequential Evanio API calls under the lock.
	if c.SubmitLockTTL <= 2*c.Gateway.Timeout {
		errs = append(errs, fmt.Errorf("SUBMIT_LOCK_TTL (%s) must exceed twice EVANIO_API_TIMEOUT (%s)", c.SubmitLockTTL, c.Gateway.Timeout))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
