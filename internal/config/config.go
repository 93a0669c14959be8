package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// Every binary reads the same environment. The local CLI only needs the
// store and time source settings; the AWS queue URLs may stay empty there.

type Config struct {
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	Timezone          string        `mapstructure:"TIMEZONE"`
	TimeSource        string        `mapstructure:"TIME_SOURCE"`
	TimeSourceURL     string        `mapstructure:"TIME_SOURCE_URL"`
	TimeSourceTimeout time.Duration `mapstructure:"TIME_SOURCE_TIMEOUT"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	SummarySQSQueueURL string `mapstructure:"SUMMARY_SQS_QUEUE_URL"`
	ExportSQSQueueURL  string `mapstructure:"EXPORT_SQS_QUEUE_URL"`
	EmailSender        string `mapstructure:"EMAIL_SENDER"`
	EmailRecipient     string `mapstructure:"EMAIL_RECIPIENT"`

	OtelExporter string `mapstructure:"OTEL_EXPORTER"`
	OtelEndpoint string `mapstructure:"OTEL_ENDPOINT"`
}

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	TimeSourceHTTP   = "http"
	TimeSourceSystem = "system"
)

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()

	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("SQLITE_PATH", "attendance.db")
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("TIMEZONE", "Asia/Shanghai")
	v.SetDefault("TIME_SOURCE", TimeSourceHTTP)
	v.SetDefault("TIME_SOURCE_URL", "https://worldtimeapi.org/api/timezone/Asia/Shanghai")
	v.SetDefault("TIME_SOURCE_TIMEOUT", "5s")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("SUMMARY_SQS_QUEUE_URL", "")
	v.SetDefault("EXPORT_SQS_QUEUE_URL", "")
	v.SetDefault("EMAIL_SENDER", "attendance@clockout-service.com")
	v.SetDefault("EMAIL_RECIPIENT", "")
	v.SetDefault("OTEL_EXPORTER", "otlp")
	v.SetDefault("OTEL_ENDPOINT", "jaeger:4317")

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}

	err = config.Validate()
	return
}

// Validate rejects settings the binaries cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.TimeSource {
	case TimeSourceHTTP:
		if c.TimeSourceURL == "" {
			return fmt.Errorf("TIME_SOURCE_URL is required when TIME_SOURCE=%s", TimeSourceHTTP)
		}
	case TimeSourceSystem:
	default:
		return fmt.Errorf("unknown TIME_SOURCE %q", c.TimeSource)
	}

	if c.TimeSourceTimeout <= 0 {
		return fmt.Errorf("TIME_SOURCE_TIMEOUT must be positive")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE, the single zone every record lives in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
