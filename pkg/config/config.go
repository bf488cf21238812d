package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Storage struct {
		Driver     string `env:"STORAGE_DRIVER" env-default:"file" env-description:"postgres or file"`
		Path       string `env:"STORAGE_PATH" env-default:"./data/posts.json"`
		Collection string `env:"STORAGE_COLLECTION" env-default:"viraLink"`
	}
	Scheduler struct {
		TickInterval   time.Duration `env:"SCHEDULER_TICK_INTERVAL" env-default:"1m"`
		Granularity    time.Duration `env:"SCHEDULER_GRANULARITY" env-default:"1m"`
		Timezone       string        `env:"SCHEDULER_TIMEZONE" env-default:"UTC"`
		PublishTimeout time.Duration `env:"SCHEDULER_PUBLISH_TIMEOUT" env-default:"30s"`
		DigestHour     int           `env:"SCHEDULER_DIGEST_HOUR" env-default:"9" env-description:"hour of the daily failed-post digest, negative disables it"`
	}
	Gemini struct {
		APIKey  string        `env:"GEMINI_API_KEY"`
		Model   string        `env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
		BaseURL string        `env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
		Timeout time.Duration `env:"GEMINI_TIMEOUT" env-default:"30s"`
	}
	ImageGen struct {
		URL     string        `env:"IMAGEGEN_URL"`
		APIKey  string        `env:"IMAGEGEN_API_KEY"`
		Timeout time.Duration `env:"IMAGEGEN_TIMEOUT" env-default:"60s"`
	}
	Publisher struct {
		URL     string        `env:"PUBLISHER_URL" env-default:"http://localhost:5000"`
		Timeout time.Duration `env:"PUBLISHER_TIMEOUT" env-default:"30s"`
	}
	Telegram struct {
		User  int64  `env:"TELEGRAM_USER"`
		Token string `env:"TELEGRAM_TOKEN"`
	}
	RateLimit struct {
		Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"5"`
		Per      time.Duration `env:"RATE_LIMIT_PER" env-default:"1m"`
		Burst    int           `env:"RATE_LIMIT_BURST" env-default:"3"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		var err error
		cfg, err = Load()
		if err != nil {
			help, _ := cleanenv.GetDescription(&Config{}, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// Load reads the configuration from the environment without caching.
func Load() (*Config, error) {
	c := &Config{}
	if err := cleanenv.ReadEnv(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverFile:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler tick interval must be positive, got %s", c.Scheduler.TickInterval)
	}
	if c.Scheduler.Granularity < 0 {
		return fmt.Errorf("scheduler granularity must not be negative, got %s", c.Scheduler.Granularity)
	}
	if c.Scheduler.DigestHour > 23 {
		return fmt.Errorf("scheduler digest hour must be below 24, got %d", c.Scheduler.DigestHour)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Per <= 0 {
		return fmt.Errorf("rate limit must allow at least one request per positive period")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}
