package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Sources.Adzuna.ResultsPerPage)
	assert.Equal(t, 3, cfg.Sources.Adzuna.MaxDaysOld)
	assert.Equal(t, 15*time.Second, cfg.Sources.Adzuna.Timeout)
	assert.Equal(t, 3, cfg.Sources.Adzuna.Retry.MaxAttempts)
	assert.Equal(t, 50, cfg.Sources.GoogleJobs.Num)
	assert.Equal(t, 1100*time.Millisecond, cfg.Geocoding.MinInterval)
	assert.Equal(t, "us", cfg.Geocoding.CountryCodes)
	assert.Equal(t, "@every 2h", cfg.Search.Schedule)
	assert.Equal(t, 30*time.Second, cfg.Search.StartupDelay)
	assert.Equal(t, "Senior Software Engineer .NET Angular", cfg.Search.DefaultQuery)
	assert.Equal(t, "United States", cfg.Search.DefaultLocation)
	assert.Equal(t, 50, cfg.Search.DefaultRadiusMiles)
	assert.Equal(t, "scored_listings", cfg.RabbitMQ.QueueName)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ADZUNA_KEY", "from-env")
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	cfg, err := Load(writeConfig(t, `
database:
  driver: postgres
  host: db
  user: jobs
  password: ${TEST_DB_PASSWORD}
  dbname: jobs
sources:
  adzuna:
    enabled: true
    app_id: abc
    app_key: ${TEST_ADZUNA_KEY}
    timeout: 5s
search:
  schedule: "0 */4 * * *"
`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Sources.Adzuna.AppKey)
	assert.Equal(t, 5*time.Second, cfg.Sources.Adzuna.Timeout)
	assert.Equal(t, "0 */4 * * *", cfg.Search.Schedule)
	assert.Equal(t, "host=db port=5432 user=jobs password=s3cret dbname=jobs sslmode=disable", cfg.Database.DSN())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "database: [not, a, map]"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "database:\n  driver: sqlite\n"))
	assert.ErrorContains(t, err, "unsupported database driver")
}
