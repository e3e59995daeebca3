package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nurkan-dev/ride-dispatch/pkg/configparser"
)

var ErrAblyKeyRequired = errors.New("ABLY_API_KEY must be provided")

// Config contains all configuration variables of the application
type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Ably     AblyConfig
		Auth     AuthConfig
		Dispatch DispatchConfig
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`
	}

	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"0.0.0.0"`
		Port string `env:"SERVER_PORT" default:"3000"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"dispatch_user"`
		Password string `env:"DATABASE_PASSWORD" default:"dispatch_pass"`
		Database string `env:"DATABASE_DATABASE" default:"dispatch_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`

		// InitSchema creates the PostGIS extension and spatial objects on startup
		InitSchema bool `env:"DATABASE_INIT_SCHEMA" default:"false"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	AblyConfig struct {
		// APIKey is the "keyName:keySecret" pair used to verify webhook signatures
		APIKey string `env:"ABLY_API_KEY"`
	}

	AuthConfig struct {
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
	}

	DispatchConfig struct {
		RoundInterval time.Duration `env:"DISPATCH_ROUND_INTERVAL" default:"20s"`
		RadiiMeters   []float64     `env:"DISPATCH_RADII_METERS"`
		DriverLimit   int           `env:"DISPATCH_DRIVER_LIMIT" default:"10"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if cfg.Ably.APIKey == "" {
		return nil, ErrAblyKeyRequired
	}

	return cfg, nil
}
