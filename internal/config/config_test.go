package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupViper  func()
		check       func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load with all defaults",
			setupViper: func() {
				viper.Reset()
				viper.SetDefault("cargo_path", DefaultCargoPath)
				viper.SetDefault("toolchain", DefaultToolchain)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultCargoPath, cfg.CargoPath)
				assert.Equal(t, DefaultToolchain, cfg.Toolchain)
				assert.True(t, filepath.IsAbs(cfg.CacheDir))
				assert.False(t, cfg.Verbose)
				assert.False(t, cfg.HashOnly)
			},
		},
		{
			name: "load with custom values",
			setupViper: func() {
				viper.Reset()
				viper.Set("cargo_path", "/opt/rust/bin/cargo")
				viper.Set("toolchain", "+stable")
				viper.Set("cache_dir", "/var/cache/scriptr")
				viper.Set("verbose", true)
				viper.Set("hash_only", true)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/opt/rust/bin/cargo", cfg.CargoPath)
				assert.Equal(t, "+stable", cfg.Toolchain)
				assert.Equal(t, "/var/cache/scriptr", cfg.CacheDir)
				assert.True(t, cfg.Verbose)
				assert.True(t, cfg.HashOnly)
			},
		},
		{
			name: "empty cargo path gets default",
			setupViper: func() {
				viper.Reset()
				viper.Set("cargo_path", "")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultCargoPath, cfg.CargoPath)
			},
		},
		{
			name: "empty cache dir gets platform default",
			setupViper: func() {
				viper.Reset()
				viper.Set("cache_dir", "")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, filepath.IsAbs(cfg.CacheDir))
				assert.Contains(t, cfg.CacheDir, "scriptr")
			},
		},
		{
			name: "invalid toolchain selector",
			setupViper: func() {
				viper.Reset()
				viper.Set("toolchain", "nightly")
			},
			wantErr:     true,
			errContains: "invalid toolchain selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupViper()

			cfg, err := Load()

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		CargoPath: "cargo",
		Toolchain: "+nightly",
		CacheDir:  "relative/cache",
	}

	err := cfg.Validate()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.CacheDir), "cache dir should be resolved absolute")

	cfg = &Config{CargoPath: "cargo", Toolchain: "beta"}
	err = cfg.Validate()
	require.Error(t, err)
}
