package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (MSGFORGE_*)
// 2. Config file (.msgforge/config.yml or .msgforge/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".msgforge")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Environment overrides, e.g. MSGFORGE_MERGE_BEHAVIOR.
	v.SetEnvPrefix("MSGFORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind the scalar keys; list and struct values only come from the
	// config file.
	v.BindEnv("extract.charset")
	v.BindEnv("extract.prefer_scan")
	v.BindEnv("extract.jobs")
	v.BindEnv("merge.behavior")
	v.BindEnv("merge.min_similarity")
	v.BindEnv("tm.enabled")
	v.BindEnv("tm.location")
	v.BindEnv("tm.min_score")
	v.BindEnv("tm.timeout_ms")
	v.BindEnv("tools.xgettext")
	v.BindEnv("watch.debounce_ms")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("extract.keywords", defaults.Extract.Keywords)
	v.SetDefault("extract.charset", defaults.Extract.Charset)
	v.SetDefault("extract.prefer_scan", defaults.Extract.PreferScan)
	v.SetDefault("extract.jobs", defaults.Extract.Jobs)

	v.SetDefault("merge.behavior", defaults.Merge.Behavior)
	v.SetDefault("merge.min_similarity", defaults.Merge.MinSimilarity)

	v.SetDefault("tm.enabled", defaults.TM.Enabled)
	v.SetDefault("tm.location", defaults.TM.Location)
	v.SetDefault("tm.min_score", defaults.TM.MinScore)
	v.SetDefault("tm.timeout_ms", defaults.TM.TimeoutMS)

	v.SetDefault("tools.xgettext", defaults.Tools.XGettext)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}

// LoadConfig creates a loader rooted at the working directory and loads.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
