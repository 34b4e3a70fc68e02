package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
app:
  env: prod
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, "configs/profiles.yaml", cfg.Scoring.ProfilesPath)
	assert.Equal(t, 8, cfg.Scoring.TimeoutPerSourceSeconds)
	assert.Equal(t, 0.5, cfg.Scoring.MinDataQuality)
	assert.Equal(t, 50, cfg.Batch.MaxConcurrency)
	assert.Equal(t, 50, cfg.Batch.BatchSize)
	assert.Equal(t, 10.0, cfg.Batch.RateLimitInitial)
	assert.Equal(t, 5, cfg.Sources.Breaker.Threshold)
	assert.Equal(t, "1h", cfg.Scan.Interval)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
scoring:
  min_data_quality: 0.8
  timeout_per_source_seconds: 3
batch:
  rate_limit_initial: 20
  rate_limit_min: 10
  rate_limit_max: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Scoring.MinDataQuality)
	assert.Equal(t, 3, cfg.Scoring.TimeoutPerSourceSeconds)
	assert.Equal(t, 20.0, cfg.Batch.RateLimitInitial)
	assert.Equal(t, 10.0, cfg.Batch.RateLimitMin)
	assert.Equal(t, 30.0, cfg.Batch.RateLimitMax)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
app:
  log_level: debug
  http_addr: ":8000"
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
app:
  http_addr: ":9000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel, "included file fills the gap")
	assert.Equal(t, ":9000", cfg.App.HTTPAddr, "main file wins over includes")
}

func TestLoadRejectsNestedIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "inner.yaml", `app: {env: dev}`)
	writeConfig(t, dir, "middle.yaml", `
include: [inner.yaml]
`)
	path := writeConfig(t, dir, "config.yaml", `
include: [middle.yaml]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested include")
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad log level", "app: {log_level: noisy}", "log_level"},
		{"bad min quality", "scoring: {min_data_quality: 1.5}", "min_data_quality"},
		{"advisory without url", "advisory: {enabled: true, model: gpt-4o-mini}", "api_url"},
		{"rate bounds inverted", "batch: {rate_limit_min: 40, rate_limit_max: 20, rate_limit_initial: 30}", "rate_limit_min"},
		{"duplicate source ids", `
sources:
  static:
    - {id: a, value: 50}
    - {id: a, value: 60}
`, "duplicate id"},
		{"static value out of range", `
sources:
  static:
    - {id: a, value: 150}
`, "[0,100]"},
		{"http source without path", `
sources:
  http:
    - {id: h, url: "http://example.com"}
`, "value_path"},
		{"telegram without token", `
notify:
  telegram: {enabled: true}
`, "bot_token"},
		{"scan without universe", `
scan: {enabled: true}
`, "universe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tc.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
