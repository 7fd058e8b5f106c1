package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Input tables: local paths or HTTP(S) URLs, CSV or XLSX
	Inputs struct {
		RawListings string `env:"RAW_LISTINGS" envDefault:"https://raw.githubusercontent.com/bear-revels/immo-eliza-scraping-Python_Pricers/main/data/all_property_details.csv"`
		PostalRef   string `env:"POSTAL_REFNIS" envDefault:"data/external/Postal_Refnis.csv"`
		SectorStats string `env:"SECTOR_DATA" envDefault:"data/external/SectorData.csv"`

		// Timeout of a single download
		Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

		// Number of download retries on network and 5xx errors
		Retries int `env:"RETRIES" envDefault:"3"`
	} `envPrefix:"INPUT_"`

	// Directory receiving the stage CSV files
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`

	// Also write the model table as an XLSX workbook
	WriteWorkbook bool `env:"OUTPUT_XLSX" envDefault:"false"`

	Database struct {
		// sqlite or postgres
		Driver string `env:"DRIVER" envDefault:"sqlite"`

		// File path for sqlite, connection string for postgres
		DSN string `env:"DSN" envDefault:"data/immoeliza.db"`
	} `envPrefix:"DB_"`

	HTTP struct {
		Port           string   `env:"PORT" envDefault:"5250"`
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// Grace period for in-flight requests on shutdown
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	} `envPrefix:"HTTP_"`

	Pipeline struct {
		// Outlier columns in filtering order; empty means the default order
		OutlierColumns []string `env:"OUTLIER_COLUMNS" envSeparator:","`

		// Years past the current one a construction year may lie
		ConstructionYearTolerance int `env:"YEAR_TOLERANCE" envDefault:"10"`

		// Maximum number of retries when persisting the model table
		MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`

		// Delay between persist retries
		RetryDelay time.Duration `env:"RETRY_DELAY" envDefault:"5s"`

		// Maximum number of pending run requests
		QueueSize int `env:"QUEUE_SIZE" envDefault:"8"`
	} `envPrefix:"PIPELINE_"`

	// Interval between scheduled runs, 0 disables the scheduler
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"0s"`

	// Queue one run as soon as the server starts
	RunOnStartup bool `env:"RUN_ON_STARTUP" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must not be negative")
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("PIPELINE_QUEUE_SIZE must be at least 1")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.ScheduleInterval < 0 {
		return fmt.Errorf("SCHEDULE_INTERVAL must not be negative")
	}
	return nil
}
