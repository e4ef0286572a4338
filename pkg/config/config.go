package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"cvhdl/pkg/schema"
	"cvhdl/pkg/utils"
)

// Config is the project configuration for cvhdl.
type Config struct {
	// Color enables ANSI colors in diagnostics.
	Color *bool `json:"color,omitempty" toml:"color,omitempty" yaml:"color,omitempty"`

	// OutDir receives generated files. Empty means next to the input.
	OutDir string `json:"outDir,omitempty" toml:"outDir,omitempty" yaml:"outDir,omitempty"`

	// Extension of generated files, including the dot.
	Extension string `json:"extension,omitempty" toml:"extension,omitempty" yaml:"extension,omitempty"`

	// Top prunes the design to this function and its callees.
	Top string `json:"top,omitempty" toml:"top,omitempty" yaml:"top,omitempty"`

	// Header names the generator in the first output line.
	Header string `json:"header,omitempty" toml:"header,omitempty" yaml:"header,omitempty"`

	// CheckSubset runs the tree-sitter scan for unsupported C constructs.
	CheckSubset *bool `json:"checkSubset,omitempty" toml:"checkSubset,omitempty" yaml:"checkSubset,omitempty"`

	Lint LintConfig `json:"lint,omitempty" toml:"lint,omitempty" yaml:"lint,omitempty"`

	// MetricsFile, when set, receives Prometheus text-format metrics.
	MetricsFile string `json:"metricsFile,omitempty" toml:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `json:"-" toml:"-" yaml:"-"`

	disable []glob.Glob
}

// LintConfig controls the design-lint rules.
type LintConfig struct {
	Enabled *bool `json:"enabled,omitempty" toml:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Disable lists glob patterns over rule names, e.g. "unused_*".
	Disable []string `json:"disable,omitempty" toml:"disable,omitempty" yaml:"disable,omitempty"`

	// Severity overrides a rule's severity: "off", "info", "warning" or "error".
	Severity map[string]string `json:"severity,omitempty" toml:"severity,omitempty" yaml:"severity,omitempty"`
}

// File names searched in a directory, in order.
var fileNames = []string{"cvhdl.json", ".cvhdl.json", ".cvhdl.toml", "cvhdl.yaml"}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Color:       boolPtr(true),
		Extension:   ".vhd",
		Header:      "cvhdl",
		CheckSubset: boolPtr(true),
		Lint: LintConfig{
			Enabled:  boolPtr(true),
			Disable:  []string{},
			Severity: map[string]string{},
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file.
// Search order:
//  1. cvhdl.json, .cvhdl.json, .cvhdl.toml, cvhdl.yaml in the working directory
//  2. the same names in inputDir, if it is a different directory
//  3. ~/.config/cvhdl/config.json
//
// Returns DefaultConfig if no config file is found.
func Load(inputDir string) (*Config, error) {
	cwd, _ := os.Getwd()

	var searchPaths []string
	for _, name := range fileNames {
		searchPaths = append(searchPaths, filepath.Join(cwd, name))
	}

	if info, err := os.Stat(inputDir); err == nil && info.IsDir() {
		absDir, _ := filepath.Abs(inputDir)
		if absDir != cwd {
			for _, name := range fileNames {
				searchPaths = append(searchPaths, filepath.Join(absDir, name))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "cvhdl", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	cfg := DefaultConfig()
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file. The format follows
// the extension: .toml, .yaml/.yml, anything else is JSON. The document is
// checked against the #Config schema before it is decoded.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		unmarshal = toml.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var doc map[string]any
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var cfg Config
	if err := unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Path = path

	cfg.applyDefaults()
	if err := cfg.compile(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func validate(doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	v, err := schema.New()
	if err != nil {
		return err
	}
	if errs := v.Errors(schema.ConfigDef, doc); len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// applyDefaults fills in missing configuration with defaults.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Color == nil {
		c.Color = def.Color
	}
	if c.Extension == "" {
		c.Extension = def.Extension
	}
	if c.Header == "" {
		c.Header = def.Header
	}
	if c.CheckSubset == nil {
		c.CheckSubset = def.CheckSubset
	}
	if c.Lint.Enabled == nil {
		c.Lint.Enabled = def.Lint.Enabled
	}
	if c.Lint.Disable == nil {
		c.Lint.Disable = []string{}
	}
	if c.Lint.Severity == nil {
		c.Lint.Severity = make(map[string]string)
	}
}

// compile prepares the lint.disable patterns.
func (c *Config) compile() error {
	c.disable = c.disable[:0]
	for _, pattern := range c.Lint.Disable {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid lint.disable pattern %q: %w", pattern, err)
		}
		c.disable = append(c.disable, g)
	}
	return nil
}

// Save writes the configuration to a file as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func (c *Config) ColorEnabled() bool  { return c.Color == nil || *c.Color }
func (c *Config) SubsetEnabled() bool { return c.CheckSubset == nil || *c.CheckSubset }
func (c *Config) LintEnabled() bool   { return c.Lint.Enabled == nil || *c.Lint.Enabled }

// GetRuleSeverity returns the severity for a rule: "off" if a disable
// pattern matches, the configured override, or defaultSeverity.
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if len(c.disable) != len(c.Lint.Disable) {
		if err := c.compile(); err != nil {
			return defaultSeverity
		}
	}
	for _, g := range c.disable {
		if g.Match(rule) {
			return "off"
		}
	}
	if severity, ok := c.Lint.Severity[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is neither disabled nor set to "off".
func (c *Config) IsRuleEnabled(rule string) bool {
	return c.GetRuleSeverity(rule, "warning") != "off"
}

// OutputPath derives the generated file for input.
func (c *Config) OutputPath(input string) string {
	return utils.ReplaceExt(input, c.OutDir, c.Extension)
}
