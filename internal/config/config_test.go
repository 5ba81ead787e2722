package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonarrative/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 512, cfg.Cache.MaxEntries)
	assert.Equal(t, 4, cfg.Report.Concurrency)
	assert.Empty(t, cfg.Sections)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrative.yaml")
	yaml := `
server:
  port: "9090"
data:
  path: areas.csv
policy:
  path: policy.yaml
log:
  level: debug
  format: console
sections:
  - id: bus_stops
    title: bus stop provision
    group_by: region
    group_label: region
    value_field: stops_per_1000
    numerator_field: bus_stops
    denominator_field: population
    scale: 1000
    unit: stops per 1,000 residents
    sources: [NaPTAN]
    rules: [distribution_summary, extrema_comparison]
    min_groups: 2
    higher_is_better: true
    target:
      field: area_type
      by_category:
        urban: 2.5
        rural: 3
      default: 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "areas.csv", cfg.Data.Path)
	assert.Equal(t, "policy.yaml", cfg.Policy.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Sections, 1)

	s, ok := cfg.Section("bus_stops")
	require.True(t, ok)
	assert.Equal(t, "stops per 1,000 residents", s.Unit)
	assert.Equal(t, 1000.0, s.Scale)
	assert.Equal(t, []string{"distribution_summary", "extrema_comparison"}, s.Rules)
	assert.True(t, s.HigherIsBetter)
	require.NotNil(t, s.Target)
	assert.Equal(t, 3.0, s.Target.ByCategory["rural"])
	require.NotNil(t, s.Target.Default)
	assert.Equal(t, 2.5, *s.Target.Default)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("NARRATIVE_SERVER_PORT", "7070")
	t.Setenv("NARRATIVE_LOG_LEVEL", "WARN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "WARN", cfg.Log.Level)
}

func TestLoadRejectsInvalidSections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing value field", "sections:\n  - id: a\n    group_by: region\n"},
		{"duplicate id", "sections:\n  - id: a\n    group_by: region\n    value_field: v\n  - id: a\n    group_by: region\n    value_field: v\n"},
		{"bad concurrency", "report:\n  concurrency: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
