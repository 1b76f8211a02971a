package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryBackoff)
	assert.False(t, cfg.RetryAllErrors)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 300, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.DelayMin)
	assert.Equal(t, 3*time.Second, cfg.DelayMax)
	assert.Equal(t, 500*time.Second, cfg.BlockTime)
	assert.Equal(t, "Datasets", cfg.OutputDir)
	assert.Equal(t, "tourist_attraction_data.csv", cfg.SummaryFile)
	assert.False(t, cfg.UseChrome)
	assert.True(t, cfg.ChromeHeadless)
	assert.False(t, cfg.PublishEnabled)
	assert.Empty(t, cfg.ProxyList)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("RETRY_ALL_ERRORS", "true")
	t.Setenv("USE_CHROME", "true")
	t.Setenv("PROXY_LIST", "127.0.0.1:1080, 10.0.0.2:9050 ,")
	t.Setenv("OUTPUT_DIR", "/tmp/out")

	cfg := LoadConfig()

	assert.Equal(t, 8, cfg.WorkerCount)
	assert.True(t, cfg.RetryAllErrors)
	assert.True(t, cfg.UseChrome)
	assert.Equal(t, []string{"127.0.0.1:1080", "10.0.0.2:9050"}, cfg.ProxyList)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
}

func TestValidate(t *testing.T) {
	base := LoadConfig()
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"zero_workers":   func(c *Config) { c.WorkerCount = 0 },
		"zero_retries":   func(c *Config) { c.MaxRetries = 0 },
		"zero_page_size": func(c *Config) { c.PageSize = 0 },
		"zero_max_pages": func(c *Config) { c.MaxPages = 0 },
		"inverted_delay": func(c *Config) { c.DelayMin = time.Hour; c.DelayMax = time.Second },
		"no_output_dir":  func(c *Config) { c.OutputDir = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := LoadConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
