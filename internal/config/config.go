// Package config handles loading explorer configuration from files and the
// environment.
//
// Configuration can be specified in a YAML or JSON file named smexplorer.yaml,
// .smexplorerrc or .smexplorerrc.json. The config file is searched for in the
// current directory and parent directories. SMEXPLORER_* environment
// variables override file values, and CLI flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// StrictIndices fails decoding on out-of-range source or name indexes
	// (default true). When false such segments lose their source or name.
	StrictIndices *bool `yaml:"strictIndices" envconfig:"SMEXPLORER_STRICT_INDICES"`

	// MapSuffix marks source map file names (default ".map")
	MapSuffix *string `yaml:"mapSuffix" envconfig:"SMEXPLORER_MAP_SUFFIX"`

	// StylesheetExtensions use the /*# */ directive form (default [".css"])
	StylesheetExtensions []string `yaml:"stylesheetExtensions" envconfig:"SMEXPLORER_STYLESHEET_EXTENSIONS"`

	// SniffContent recognizes maps by content as well as by name (default true)
	SniffContent *bool `yaml:"sniffContent" envconfig:"SMEXPLORER_SNIFF_CONTENT"`

	// CacheSize is the number of decoded maps kept in memory (default 128)
	CacheSize *int `yaml:"cacheSize" envconfig:"SMEXPLORER_CACHE_SIZE"`

	LogLevel  *string `yaml:"logLevel" envconfig:"SMEXPLORER_LOG_LEVEL"`
	LogFormat *string `yaml:"logFormat" envconfig:"SMEXPLORER_LOG_FORMAT"`

	// IgnoreDiagnostics lists diagnostic codes that are not reported
	IgnoreDiagnostics []string `yaml:"ignoreDiagnostics" envconfig:"SMEXPLORER_IGNORE_DIAGNOSTICS"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"smexplorer.yaml",
	".smexplorerrc",
	".smexplorerrc.json",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(fs afero.Fs, startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := fs.Stat(path); err == nil {
				cfg, err := LoadFile(fs, path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// FromEnv reads SMEXPLORER_* variables through lookup. A nil lookup reads
// the process environment.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var cfg Config
	if err := envconfig.Process("", &cfg, lookup); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// Apply returns a copy of c with every field set in other taking precedence.
func (c *Config) Apply(other *Config) *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if other == nil {
		return &out
	}

	if other.StrictIndices != nil {
		out.StrictIndices = other.StrictIndices
	}
	if other.MapSuffix != nil {
		out.MapSuffix = other.MapSuffix
	}
	if len(other.StylesheetExtensions) > 0 {
		out.StylesheetExtensions = other.StylesheetExtensions
	}
	if other.SniffContent != nil {
		out.SniffContent = other.SniffContent
	}
	if other.CacheSize != nil {
		out.CacheSize = other.CacheSize
	}
	if other.LogLevel != nil {
		out.LogLevel = other.LogLevel
	}
	if other.LogFormat != nil {
		out.LogFormat = other.LogFormat
	}
	if len(other.IgnoreDiagnostics) > 0 {
		out.IgnoreDiagnostics = other.IgnoreDiagnostics
	}
	return &out
}

// ToOptions converts a Config to registry.Options, using defaults for unset fields.
func (c *Config) ToOptions() registry.Options {
	opts := registry.DefaultOptions()

	if c.StrictIndices != nil {
		opts.Decode.Strict = *c.StrictIndices
	}
	if c.MapSuffix != nil && *c.MapSuffix != "" {
		opts.MapSuffix = *c.MapSuffix
	}
	if len(c.StylesheetExtensions) > 0 {
		opts.StylesheetExtensions = normalizeExtensions(c.StylesheetExtensions)
	}
	if c.SniffContent != nil {
		opts.SniffContent = *c.SniffContent
	}
	if c.CacheSize != nil && *c.CacheSize >= 0 {
		opts.CacheSize = *c.CacheSize
	}

	return opts
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// MergeOptions holds CLI flags. A nil pointer or empty value means the flag
// was not given.
type MergeOptions struct {
	Strict  *bool
	NoSniff bool
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) registry.Options {
	opts := c.ToOptions()

	if cli.Strict != nil {
		opts.Decode.Strict = *cli.Strict
	}
	if cli.NoSniff {
		opts.SniffContent = false
	}

	return opts
}

// Level returns the configured log level, warn when unset.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return logrus.WarnLevel, nil
	}
	return logrus.ParseLevel(*c.LogLevel)
}

// Formatter returns the log formatter for the configured format.
func (c *Config) Formatter() (logrus.Formatter, error) {
	format := "text"
	if c.LogFormat != nil && *c.LogFormat != "" {
		format = *c.LogFormat
	}
	switch format {
	case "text":
		return &logrus.TextFormatter{DisableTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// DiagnosticFilter returns a filter disabling the configured codes and any
// extra ones, such as those given on the command line.
func (c *Config) DiagnosticFilter(extra ...string) *diagnostic.Filter {
	f := diagnostic.NewFilter()
	for _, codes := range [][]string{c.IgnoreDiagnostics, extra} {
		for _, code := range codes {
			f.Disable(diagnostic.Code(strings.ToUpper(strings.TrimSpace(code))))
		}
	}
	return f
}
