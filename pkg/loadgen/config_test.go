package loadgen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8080", cfg.Target)
	assert.Equal(t, 10*time.Second, cfg.Duration)
	assert.Equal(t, 5, cfg.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadgen.yml")
	data := `
target: http://api:9090
duration: 1m
workers: 20
owners: ["o1", "o2"]
reference_ratio: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api:9090", cfg.Target)
	assert.Equal(t, time.Minute, cfg.Duration)
	assert.Equal(t, 20, cfg.Workers)
	assert.Equal(t, []string{"o1", "o2"}, cfg.Owners)
	assert.Equal(t, 0.5, cfg.ReferenceRatio)
	// unset fields keep defaults
	assert.Equal(t, 100, cfg.CodePool)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty target", func(c *Config) { c.Target = "" }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero code pool", func(c *Config) { c.CodePool = 0 }},
		{"ratio out of range", func(c *Config) { c.ReferenceRatio = 1.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
