package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for covgap.
type Config struct {
	// Analysis settings for gap extraction and scenario planning
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Cache settings for parsed report results
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Git settings for the source-control workflow commands
	Git GitConfig `koanf:"git" toml:"git"`
}

// AnalysisConfig controls gap extraction and scenario planning.
type AnalysisConfig struct {
	TopK        int `koanf:"top_k" toml:"top_k"`               // gaps shown in summaries
	MaxGaps     int `koanf:"max_gaps" toml:"max_gaps"`         // gaps considered for generation
	ScenarioCap int `koanf:"scenario_cap" toml:"scenario_cap"` // BOUNDARY scenarios per gap
}

// CacheConfig controls caching of parsed reports.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// GitConfig controls the source-control workflow commands.
type GitConfig struct {
	Remote          string   `koanf:"remote" toml:"remote"`
	BaseBranch      string   `koanf:"base_branch" toml:"base_branch"`
	ExcludePatterns []string `koanf:"exclude_patterns" toml:"exclude_patterns"` // never staged
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			TopK:        10,
			MaxGaps:     10,
			ScenarioCap: 3,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".covgap/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		Git: GitConfig{
			Remote:     "origin",
			BaseBranch: "main",
			ExcludePatterns: []string{
				"*.class",
				"*.jar",
				"target/",
				"build/",
				"dist/",
				"out/",
				".gradle/",
				"node_modules/",
			},
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"covgap.toml",
		"covgap.yaml",
		"covgap.yml",
		"covgap.json",
		".covgap.toml",
		".covgap.yaml",
		".covgap.yml",
		".covgap.json",
	}

	searchDirs := []string{".", ".covgap"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExcludeFromStaging checks if a path matches the configured
// never-stage patterns (build artifacts, dependency dirs).
func (c *Config) ShouldExcludeFromStaging(path string) bool {
	for _, pattern := range c.Git.ExcludePatterns {
		switch {
		case strings.HasSuffix(pattern, "/"):
			if strings.HasPrefix(path, pattern) ||
				strings.Contains(path, "/"+pattern) {
				return true
			}
		case strings.HasPrefix(pattern, "*"):
			if strings.HasSuffix(path, pattern[1:]) {
				return true
			}
		default:
			if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
				return true
			}
		}
	}
	return false
}
