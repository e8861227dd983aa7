package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                string         `yaml:"port"`
	GinMode             string         `yaml:"gin_mode"`
	LogLevel            string         `yaml:"log_level"`
	DB                  Database       `yaml:"database"`
	JWTSecret           string         `yaml:"jwt_secret"`
	RabbitMQURL         string         `yaml:"rabbitmq_url"`
	CORSOrigins         []string       `yaml:"cors_origins"`
	RateLimitPerSecond  float64        `yaml:"rate_limit_per_second"`
	ShutdownGracePeriod time.Duration  `yaml:"shutdown_grace_period"`
	KDS                 KitchenDisplay `yaml:"kitchen_display"`
}

type Database struct {
	// Driver is mysql, postgres, sqlite or mongo.
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// KitchenDisplay configures the cmd/kitchen-display client.
type KitchenDisplay struct {
	BaseURL       string        `yaml:"base_url"`
	RestaurantID  string        `yaml:"restaurant_id"`
	Token         string        `yaml:"token"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	ClockInterval time.Duration `yaml:"clock_interval"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	Sound         bool          `yaml:"sound"`
	Flash         bool          `yaml:"flash"`
}

func Default() *Config {
	return &Config{
		Port:                "8080",
		GinMode:             "debug",
		LogLevel:            "info",
		DB:                  Database{Driver: "sqlite", DSN: "orders.db", MongoDatabase: "order_platform"},
		RateLimitPerSecond:  50,
		ShutdownGracePeriod: 10 * time.Second,
		KDS: KitchenDisplay{
			BaseURL:       "http://localhost:8080",
			PollInterval:  10 * time.Second,
			ClockInterval: 60 * time.Second,
			FetchTimeout:  10 * time.Second,
			Sound:         true,
			Flash:         true,
		},
	}
}

// Load reads .env, then the YAML file named by CONFIG_FILE, then the
// environment. Later sources win.
func Load() (*Config, error) {
	// .env boleh tidak ada
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.DB.Driver, "DB_DRIVER")
	setString(&c.DB.DSN, "DB_DSN")
	setString(&c.DB.MongoURI, "MONGO_URI")
	setString(&c.DB.MongoDatabase, "MONGO_DATABASE")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.RabbitMQURL, "RABBITMQ_URL")
	setString(&c.KDS.BaseURL, "KDS_BASE_URL")
	setString(&c.KDS.RestaurantID, "KDS_RESTAURANT_ID")
	setString(&c.KDS.Token, "KDS_TOKEN")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_SECOND: %w", err)
		}
		c.RateLimitPerSecond = f
	}

	durations := map[string]*time.Duration{
		"SHUTDOWN_GRACE_PERIOD": &c.ShutdownGracePeriod,
		"KDS_POLL_INTERVAL":     &c.KDS.PollInterval,
		"KDS_CLOCK_INTERVAL":    &c.KDS.ClockInterval,
		"KDS_FETCH_TIMEOUT":     &c.KDS.FetchTimeout,
	}
	for key, target := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*target = d
		}
	}

	bools := map[string]*bool{
		"KDS_SOUND": &c.KDS.Sound,
		"KDS_FLASH": &c.KDS.Flash,
	}
	for key, target := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*target = b
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
		if c.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for %s", c.DB.Driver)
		}
	case "mongo":
		if c.DB.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	// 0 mematikan rate limiter
	if c.RateLimitPerSecond < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND cannot be negative, use 0 to disable")
	}
	return nil
}

func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
