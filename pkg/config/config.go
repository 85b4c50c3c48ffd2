// Package config loads the tool configuration: summarization provider
// settings, per-command overrides, retention age, and the recency window for
// prompt context. Configuration lives in a YAML file under ~/.ctxguard and is
// written with defaults on first use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultProviderType = "lmstudio"
	DefaultProviderURL  = "http://127.0.0.1:1234"
	DefaultModel        = "local-model"

	DefaultSummaryWords = 100
	DefaultCleanUpDays  = 5

	// DefaultOutputDir is the retention directory for output records.
	DefaultOutputDir = "/tmp/ctx_guard"
)

// Provider holds the summarization endpoint settings.
type Provider struct {
	Type   string `yaml:"type"`
	URL    string `yaml:"url"`
	Model  string `yaml:"model"`
	Prompt string `yaml:"prompt"`

	// SummaryWords is the requested summary length.
	SummaryWords int `yaml:"summary_words"`

	// OutputLengthThreshold is the word count below which output is returned
	// verbatim instead of summarized. The effective threshold never drops
	// below the summary length; summarizing output shorter than the summary
	// would only add latency.
	OutputLengthThreshold int `yaml:"output_length_threshold"`
}

// CommandOverride adjusts behavior for a single command (or glob pattern of
// commands). In YAML it is either a bare bool, where false disables the
// command entirely, or a mapping with a summary_words override.
type CommandOverride struct {
	Disabled     bool
	SummaryWords int
}

// UnmarshalYAML accepts the two override shapes:
//
//	"npx jest":
//	  summary_words: 200
//	"curl -v https://example.com": false
func (o *CommandOverride) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var enabled bool
		if err := value.Decode(&enabled); err != nil {
			return fmt.Errorf("config: command override must be a bool or a mapping: %w", err)
		}
		o.Disabled = !enabled
		return nil
	case yaml.MappingNode:
		var raw struct {
			SummaryWords int `yaml:"summary_words"`
		}
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("config: command override: %w", err)
		}
		o.SummaryWords = raw.SummaryWords
		return nil
	default:
		return fmt.Errorf("config: unsupported command override shape")
	}
}

// MarshalYAML renders the override back in its compact file shape.
func (o CommandOverride) MarshalYAML() (interface{}, error) {
	if o.Disabled {
		return false, nil
	}
	if o.SummaryWords > 0 {
		return map[string]int{"summary_words": o.SummaryWords}, nil
	}
	return true, nil
}

// Config is the full tool configuration.
type Config struct {
	Provider Provider                   `yaml:"provider"`
	Commands map[string]CommandOverride `yaml:"commands"`

	// OutputDir is the retention directory holding output records.
	OutputDir string `yaml:"output_dir"`

	// CleanUpDays is the retention age; records older than this are swept.
	CleanUpDays int `yaml:"clean_up_days"`

	// CommandContextMinutes is the recency window for prompt context.
	// Zero disables the recent-commands section of the prompt.
	CommandContextMinutes int `yaml:"command_context_minutes"`

	// patterns holds the compiled glob override keys, sorted by key for
	// deterministic matching. Exact map hits always win over patterns.
	patterns []commandPattern
}

type commandPattern struct {
	key      string
	matcher  glob.Glob
	override CommandOverride
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Provider: Provider{
			Type:                  DefaultProviderType,
			URL:                   DefaultProviderURL,
			Model:                 DefaultModel,
			Prompt:                defaultPrompt,
			SummaryWords:          DefaultSummaryWords,
			OutputLengthThreshold: DefaultSummaryWords,
		},
		Commands:    map[string]CommandOverride{},
		OutputDir:   DefaultOutputDir,
		CleanUpDays: DefaultCleanUpDays,
	}
	return cfg
}

// DefaultPath returns ~/.ctxguard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ctxguard", "config.yaml"), nil
}

// Load reads the configuration from path, writing the default file first if
// none exists. An empty path means the default location. Unset fields fall
// back to defaults. Invalid glob override keys are dropped; the returned
// warnings name them so the caller can log.
func Load(path string) (*Config, []string, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, nil, err
		}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return nil, nil, err
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	warnings := cfg.compilePatterns()
	if err := cfg.Validate(); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// applyDefaults fills zero-valued fields so a sparse file behaves like the
// built-in configuration.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Provider.Type == "" {
		c.Provider.Type = d.Provider.Type
	}
	if c.Provider.URL == "" {
		c.Provider.URL = d.Provider.URL
	}
	if c.Provider.Model == "" {
		c.Provider.Model = d.Provider.Model
	}
	if c.Provider.Prompt == "" {
		c.Provider.Prompt = d.Provider.Prompt
	}
	if c.Provider.SummaryWords == 0 {
		c.Provider.SummaryWords = d.Provider.SummaryWords
	}
	if c.Provider.OutputLengthThreshold == 0 {
		c.Provider.OutputLengthThreshold = d.Provider.OutputLengthThreshold
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.CleanUpDays == 0 {
		c.CleanUpDays = d.CleanUpDays
	}
	if c.Commands == nil {
		c.Commands = map[string]CommandOverride{}
	}
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.Provider.SummaryWords <= 0 {
		return fmt.Errorf("config: summary_words must be positive, got %d", c.Provider.SummaryWords)
	}
	if c.CleanUpDays < 0 {
		return fmt.Errorf("config: clean_up_days must not be negative, got %d", c.CleanUpDays)
	}
	if c.CommandContextMinutes < 0 {
		return fmt.Errorf("config: command_context_minutes must not be negative, got %d", c.CommandContextMinutes)
	}
	return nil
}

// compilePatterns compiles override keys containing glob metacharacters.
// Invalid patterns are skipped and reported as warnings rather than failing
// the whole load.
func (c *Config) compilePatterns() []string {
	var warnings []string
	keys := make([]string, 0, len(c.Commands))
	for key := range c.Commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	c.patterns = c.patterns[:0]
	for _, key := range keys {
		if !strings.ContainsAny(key, "*?[") {
			continue
		}
		matcher, err := glob.Compile(key)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid command pattern %q: %v", key, err))
			continue
		}
		c.patterns = append(c.patterns, commandPattern{key: key, matcher: matcher, override: c.Commands[key]})
	}
	return warnings
}

// override resolves the command's override: an exact key wins, then the first
// matching glob pattern in key order.
func (c *Config) override(command string) (CommandOverride, bool) {
	if o, ok := c.Commands[command]; ok {
		return o, true
	}
	for _, p := range c.patterns {
		if p.matcher.Match(command) {
			return p.override, true
		}
	}
	return CommandOverride{}, false
}

// Disabled reports whether record-keeping and summarization are switched off
// for this command.
func (c *Config) Disabled(command string) bool {
	o, ok := c.override(command)
	return ok && o.Disabled
}

// SummaryWords returns the summary length for a command, honoring overrides.
func (c *Config) SummaryWords(command string) int {
	if o, ok := c.override(command); ok && o.SummaryWords > 0 {
		return o.SummaryWords
	}
	return c.Provider.SummaryWords
}

// OutputLengthThreshold returns the word count at or below which output is
// returned verbatim. It is floored at the command's summary length.
func (c *Config) OutputLengthThreshold(command string) int {
	words := c.SummaryWords(command)
	if c.Provider.OutputLengthThreshold > words {
		return c.Provider.OutputLengthThreshold
	}
	return words
}

// PromptVars are the values substituted into the prompt template.
type PromptVars struct {
	Command        string
	ExitCode       int
	Output         string
	SummaryWords   int
	RecentCommands string
}

// RenderPrompt fills the template placeholders. Unknown placeholders are left
// as-is so a template typo is visible in the prompt instead of silently
// dropped.
func (c *Config) RenderPrompt(vars PromptVars) string {
	return strings.NewReplacer(
		"${recent_commands}", vars.RecentCommands,
		"${command}", vars.Command,
		"${exit_code}", strconv.Itoa(vars.ExitCode),
		"${output}", vars.Output,
		"${summary_words}", strconv.Itoa(vars.SummaryWords),
	).Replace(c.Provider.Prompt)
}

// writeDefault materializes the default configuration at path, creating
// parent directories as needed.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	content := "# ctxguard configuration. Generated with defaults; edit freely.\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
