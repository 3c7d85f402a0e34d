package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Login collaborator modes.
const (
	AuthModeLocal    = "local"
	AuthModeUpstream = "upstream"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AuthMode picks the login collaborator: "local" checks operator accounts
	// in MongoDB, "upstream" calls the laundry API.
	AuthMode  string        `env:"AUTH_MODE,  default=local"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`

	Session  SessionConfig
	Upstream UpstreamConfig
	Seed     SeedConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type SessionConfig struct {
	// Driver is "memory" or "redis".
	Driver           string        `env:"STORAGE_DRIVER,    default=memory"`
	Prefix           string        `env:"STORAGE_PREFIX,    default=console:"`
	RehydrateTimeout time.Duration `env:"REHYDRATE_TIMEOUT, default=3s"`
	Heartbeat        time.Duration `env:"EVENTS_HEARTBEAT,  default=15s"`
}

type UpstreamConfig struct {
	URL     string        `env:"UPSTREAM_URL"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT, default=10s"`
}

// SeedConfig optionally creates one operator account at startup in local mode.
type SeedConfig struct {
	Email    string `env:"SEED_EMAIL"`
	Password string `env:"SEED_PASSWORD"`
	Name     string `env:"SEED_NAME, default=Administrador"`
	Role     string `env:"SEED_ROLE, default=superadmin"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ops_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error
	switch c.AuthMode {
	case AuthModeLocal:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=local"))
		}
	case AuthModeUpstream:
		if c.Upstream.URL == "" {
			errs = append(errs, errors.New("UPSTREAM_URL is required when AUTH_MODE=upstream"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeLocal, AuthModeUpstream, c.AuthMode))
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be memory or redis, got %q", c.Session.Driver))
	}
	if (c.Seed.Email == "") != (c.Seed.Password == "") {
		errs = append(errs, errors.New("SEED_EMAIL and SEED_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the console runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
