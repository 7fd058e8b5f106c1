package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a directory without a .env file for the duration of the test.
func chdir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://raw.githubusercontent.com/bear-revels/immo-eliza-scraping-Python_Pricers/main/data/all_property_details.csv", cfg.Inputs.RawListings)
	assert.Equal(t, "data/external/Postal_Refnis.csv", cfg.Inputs.PostalRef)
	assert.Equal(t, "data/external/SectorData.csv", cfg.Inputs.SectorStats)
	assert.Equal(t, 60*time.Second, cfg.Inputs.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "5250", cfg.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Empty(t, cfg.Pipeline.OutlierColumns)
	assert.Equal(t, 10, cfg.Pipeline.ConstructionYearTolerance)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.RetryDelay)
	assert.Equal(t, time.Duration(0), cfg.ScheduleInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.RunOnStartup)
}

func TestLoadConfig_Environment(t *testing.T) {
	chdir(t)
	t.Setenv("INPUT_RAW_LISTINGS", "/data/raw.csv")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=localhost user=immo dbname=immo sslmode=disable")
	t.Setenv("PIPELINE_OUTLIER_COLUMNS", "Price,LivingArea")
	t.Setenv("HTTP_CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("SCHEDULE_INTERVAL", "24h")
	t.Setenv("RUN_ON_STARTUP", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/data/raw.csv", cfg.Inputs.RawListings)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"Price", "LivingArea"}, cfg.Pipeline.OutlierColumns)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.ScheduleInterval)
	assert.True(t, cfg.RunOnStartup)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("OUTPUT_DIR=/tmp/immo-out\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("OUTPUT_DIR") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/immo-out", cfg.OutputDir)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	chdir(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
