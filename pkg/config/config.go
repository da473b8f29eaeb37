package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" default:"your-secret-key-change-in-production"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	JWTAccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"24h"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"firestore"` // firestore|postgres|memory
	DatabaseURL string `envconfig:"DATABASE_URL"`

	FirebaseCredentials string `envconfig:"FIREBASE_CREDENTIALS"`
	FirebaseProjectID   string `envconfig:"FIREBASE_PROJECT_ID"`

	// All schedule times are interpreted in this single zone
	Timezone          string  `envconfig:"NOTIFICATION_TIMEZONE" default:"Asia/Jakarta"`
	SchedulerEnabled  bool    `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SchedulerSpec     string  `envconfig:"SCHEDULER_SPEC" default:"* * * * *"`
	DispatchWorkers   int     `envconfig:"DISPATCH_WORKERS" default:"1"`
	SendRatePerSecond float64 `envconfig:"SEND_RATE_PER_SECOND" default:"0"` // 0 = unlimited
	AndroidChannelID  string  `envconfig:"ANDROID_CHANNEL_ID" default:"runup_notifications"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreFirestore, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.DispatchWorkers)
	}
	if c.SendRatePerSecond < 0 {
		return fmt.Errorf("SEND_RATE_PER_SECOND must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the notification timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
