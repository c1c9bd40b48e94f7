// Package config loads msgforge configuration from .msgforge/config.yml
// with MSGFORGE_* environment variable overrides.
package config

import (
	"time"

	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/merge"
	"github.com/mvp-joe/msgforge/internal/tm"
	"github.com/mvp-joe/msgforge/internal/watcher"
)

// Config is the complete msgforge configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Merge   MergeConfig   `yaml:"merge" mapstructure:"merge"`
	TM      TMConfig      `yaml:"tm" mapstructure:"tm"`
	Tools   ToolsConfig   `yaml:"tools" mapstructure:"tools"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// ExtractConfig configures string extraction.
type ExtractConfig struct {
	Keywords   []string        `yaml:"keywords" mapstructure:"keywords"`       // extra keyword specs merged with the catalog header list
	Charset    string          `yaml:"charset" mapstructure:"charset"`         // fallback source charset, catalog header wins
	Mappings   []MappingConfig `yaml:"mappings" mapstructure:"mappings"`       // file mask overrides, e.g. {mask: "*.phtml", target: "gettext:php"}
	PreferScan bool            `yaml:"prefer_scan" mapstructure:"prefer_scan"` // prefer embedded scanners over xgettext
	Jobs       int             `yaml:"jobs" mapstructure:"jobs"`               // extractor concurrency, 0 = NumCPU
	Legacy     []LegacyConfig  `yaml:"legacy" mapstructure:"legacy"`           // user-defined command-template extractors
}

// MappingConfig maps a file mask onto an extraction target.
type MappingConfig struct {
	Mask   string `yaml:"mask" mapstructure:"mask"`
	Target string `yaml:"target" mapstructure:"target"` // "gettext:<lang>" or "scan:<lang>"
}

// LegacyConfig defines one command-template extractor.
type LegacyConfig struct {
	Name       string   `yaml:"name" mapstructure:"name"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Command    string   `yaml:"command" mapstructure:"command"`
}

// MergeConfig configures how extracted strings merge into the catalog.
type MergeConfig struct {
	Behavior      string  `yaml:"behavior" mapstructure:"behavior"`             // "none", "fuzzy" or "tm"
	MinSimilarity float64 `yaml:"min_similarity" mapstructure:"min_similarity"` // fuzzy match threshold in (0,1]
}

// TMConfig configures the translation memory.
type TMConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	Location  string  `yaml:"location" mapstructure:"location"`     // override default ~/.msgforge/tm
	MinScore  float64 `yaml:"min_score" mapstructure:"min_score"`   // suggestion score floor in (0,1]
	TimeoutMS int     `yaml:"timeout_ms" mapstructure:"timeout_ms"` // per-lookup budget, 0 = library default
}

// ToolsConfig locates external binaries.
type ToolsConfig struct {
	XGettext string `yaml:"xgettext" mapstructure:"xgettext"` // explicit path override
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"` // quiet period before re-updating
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Extract: ExtractConfig{
			Jobs: 0,
		},
		Merge: MergeConfig{
			Behavior:      merge.FuzzyMatch.String(),
			MinSimilarity: merge.DefaultMinSimilarity,
		},
		TM: TMConfig{
			Enabled:   true,
			Location:  "", // Empty means use default ~/.msgforge/tm
			MinScore:  tm.DefaultMinScore,
			TimeoutMS: int(tm.DefaultTimeout / time.Millisecond),
		},
		Watch: WatchConfig{
			DebounceMS: int(watcher.DefaultDebounce / time.Millisecond),
		},
	}
}

// SpecExtras returns the extraction additions this configuration folds
// into a header-built source spec.
func (c *Config) SpecExtras() extract.SpecExtras {
	extras := extract.SpecExtras{
		Keywords: c.Extract.Keywords,
		Charset:  c.Extract.Charset,
	}
	for _, m := range c.Extract.Mappings {
		extras.Mappings = append(extras.Mappings, extract.TypeMapping{Mask: m.Mask, Target: m.Target})
	}
	return extras
}

// LegacyRules converts the configured legacy extractors into registry
// rules.
func (c *Config) LegacyRules() []extract.LegacyRule {
	var rules []extract.LegacyRule
	for _, l := range c.Extract.Legacy {
		rules = append(rules, extract.LegacyRule{
			Name:       l.Name,
			Extensions: l.Extensions,
			Command:    l.Command,
		})
	}
	return rules
}

// MergeBehavior returns the parsed merge behavior.
func (c *Config) MergeBehavior() (merge.Behavior, error) {
	return merge.ParseBehavior(c.Merge.Behavior)
}

// TMTimeout returns the lookup budget as a duration.
func (c *Config) TMTimeout() time.Duration {
	return time.Duration(c.TM.TimeoutMS) * time.Millisecond
}

// WatchDebounce returns the watch quiet period as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
