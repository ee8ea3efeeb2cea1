package config

import (
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugforge/plugforge/internal/adapter"
)

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.Generation.SpecFile)
	assert.Equal(t, "./dist", cfg.Generation.OutputDir)
	assert.Empty(t, cfg.Generation.Platforms)
	assert.False(t, cfg.Generation.AutoHeal)
	assert.Equal(t, 256, cfg.Cache.MaxSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("PLUGFORGE_SPEC_FILE", "plugin.yaml")
	os.Setenv("PLUGFORGE_OUTPUT_DIR", "/tmp/out")
	os.Setenv("PLUGFORGE_PLATFORMS", "cc,zed")
	os.Setenv("PLUGFORGE_AUTO_HEAL", "true")
	os.Setenv("PLUGFORGE_CACHE_SIZE", "1024")
	os.Setenv("PLUGFORGE_WATCH_DEBOUNCE", "1s")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "plugin.yaml", cfg.Generation.SpecFile)
	assert.Equal(t, "/tmp/out", cfg.Generation.OutputDir)
	assert.Equal(t, []string{"cc", "zed"}, cfg.Generation.Platforms)
	assert.True(t, cfg.Generation.AutoHeal)
	assert.Equal(t, 1024, cfg.Cache.MaxSize)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_UnknownPlatform(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("PLUGFORGE_PLATFORMS", "cc,emacs")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Platforms contains an unknown platform")
}

func TestValidate_InvalidCacheSize(t *testing.T) {
	cfg := createValidConfig()
	cfg.Cache.MaxSize = 8

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MaxSize must be at least 16")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := createValidConfig()
	cfg.Logging.Level = "invalid"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Level must be one of: debug info warn error")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := createValidConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Format must be one of: json text")
}

func TestValidate_MissingOutputDir(t *testing.T) {
	cfg := createValidConfig()
	cfg.Generation.OutputDir = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "OutputDir is required")
}

func TestValidate_WatchDebounce(t *testing.T) {
	t.Run("below minimum", func(t *testing.T) {
		cfg := createValidConfig()
		cfg.Watch.Debounce = 5 * time.Millisecond
		err := Validate(cfg)
		assert.EqualError(t, err, "watch debounce must be at least 10ms")
	})

	t.Run("at minimum", func(t *testing.T) {
		cfg := createValidConfig()
		cfg.Watch.Debounce = 10 * time.Millisecond
		assert.NoError(t, Validate(cfg))
	})
}

func TestValidate_Platforms(t *testing.T) {
	tests := []struct {
		name      string
		platforms []string
		valid     bool
	}{
		{"empty", nil, true},
		{"known", []string{"cc", "copilot-cli", "jetbrains"}, true},
		{"blank entries", []string{"cc", " ", ""}, true},
		{"padded", []string{" gc "}, true},
		{"unknown", []string{"cc", "emacs"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createValidConfig()
			cfg.Generation.Platforms = tt.platforms
			err := Validate(cfg)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPlatformList(t *testing.T) {
	cfg := createValidConfig()
	cfg.Generation.Platforms = []string{" cc", "", "zed "}
	assert.Equal(t, []string{"cc", "zed"}, cfg.PlatformList())

	cfg.Generation.Platforms = nil
	assert.Empty(t, cfg.PlatformList())
}

// Feature: github.com/plugforge/plugforge, Property 9: Any subset of registry platforms is a valid platform filter
func TestProperty_RegistryPlatformsAreAccepted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("subsets of registry names validate", prop.ForAll(
		func(mask uint16) bool {
			cfg := createValidConfig()
			for i, name := range adapter.PlatformNames {
				if mask&(1<<i) != 0 {
					cfg.Generation.Platforms = append(cfg.Generation.Platforms, name)
				}
			}
			return Validate(cfg) == nil
		},
		gen.UInt16Range(0, uint16(1<<len(adapter.PlatformNames)-1)),
	))

	properties.TestingRun(t)
}

func clearEnvVars() {
	envVars := []string{
		"PLUGFORGE_SPEC_FILE", "PLUGFORGE_OUTPUT_DIR", "PLUGFORGE_PLATFORMS", "PLUGFORGE_AUTO_HEAL",
		"PLUGFORGE_CACHE_SIZE", "PLUGFORGE_WATCH_DEBOUNCE",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func createValidConfig() *Config {
	cfg := &Config{}
	cfg.Generation.OutputDir = "./dist"
	cfg.Cache.MaxSize = 256
	cfg.Watch.Debounce = 300 * time.Millisecond
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}
