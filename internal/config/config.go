package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultCargoPath = "cargo"
	DefaultToolchain = "+nightly"
	DefaultVerbose   = false
	DefaultHashOnly  = false
)

// Holds the configuration options for scriptr
type Config struct {
	// Path to the cargo binary
	CargoPath string

	// Toolchain selector passed to cargo (e.g. "+nightly")
	Toolchain string

	// Directory holding cache entries and the run history
	CacheDir string

	// Enable verbose output
	Verbose bool

	// Skip the mtime fast path and always compare content hashes
	HashOnly bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CargoPath: viper.GetString("cargo_path"),
		Toolchain: viper.GetString("toolchain"),
		CacheDir:  viper.GetString("cache_dir"),
		Verbose:   viper.GetBool("verbose"),
		HashOnly:  viper.GetBool("hash_only"),
	}

	// Apply defaults if not set
	if cfg.CargoPath == "" {
		cfg.CargoPath = DefaultCargoPath
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultCacheDir derives the cache directory from the platform convention,
// falling back to the system temp directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	return filepath.Join(base, "scriptr")
}

func (c *Config) Validate() error {
	if c.Toolchain != "" && !strings.HasPrefix(c.Toolchain, "+") {
		return fmt.Errorf("invalid toolchain selector: %s", c.Toolchain)
	}

	abs, err := filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("invalid cache directory: %v", err)
	}

	c.CacheDir = abs

	return nil
}
