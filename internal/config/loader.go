package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForScript loads configuration for a run against the given script path.
func (l *Loader) LoadForScript(cmd *cobra.Command, script string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(script)
	l.bindCommandFlags(cmd)

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("cargo_path", DefaultCargoPath)
	viper.SetDefault("toolchain", DefaultToolchain)
	viper.SetDefault("cache_dir", DefaultCacheDir())
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("hash_only", DefaultHashOnly)
}

// loadGlobalConfig loads global configuration from the user config directory
func (l *Loader) loadGlobalConfig() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return
	}

	globalDir := filepath.Join(configDir, "scriptr")

	for _, ext := range []string{"yml", "yaml", "json", "toml"} {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// loadLocalConfig loads local configuration from the script's directory
func (l *Loader) loadLocalConfig(script string) {
	if script == "" {
		return
	}

	absScript, err := filepath.Abs(script)
	if err != nil {
		return // silently ignore, resolution is validated later
	}

	localPath := FindLocalConfig(filepath.Dir(absScript))
	if localPath != "" {
		viper.SetConfigFile(localPath)
		_ = viper.ReadInConfig()
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("hash_only", cmd.Flags().Lookup("hash-only"))
}
