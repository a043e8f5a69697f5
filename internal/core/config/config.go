// Package config handles configuration loading and validation for moodlesync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/tkarvinen/moodlesync/pkg/sanitize"
)

// HistoryFileName is the download cache file kept at the output root.
const HistoryFileName = "downloaded_index.json"

// DefaultUserAgent mirrors a desktop browser. Moodle serves the bare
// login page to clients it does not recognize.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// DefaultLoginMarker is the login-page text that signals an expired
// session cookie ("Kirjaudu" is the login button on Finnish Moodle).
const DefaultLoginMarker = "Kirjaudu"

// Config holds the application configuration.
type Config struct {
	// Root is the output directory; the download cache lives at
	// <root>/downloaded_index.json.
	Root string `yaml:"root"`
	// NotesDir is the per-subject notes folder linked from the index.
	NotesDir string `yaml:"notes_dir"`
	// UserAgent is sent on every request.
	UserAgent string `yaml:"user_agent"`
	// TimeoutSeconds bounds each HTTP request; 0 disables the timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// LoginMarker is the landing-page substring that signals an
	// expired session.
	LoginMarker string `yaml:"login_marker"`
	// Sections holds glob patterns matched (case-insensitively) against
	// section titles; sections matching none are skipped. Empty means
	// sync everything.
	Sections []string `yaml:"sections"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Root:        "courses",
		NotesDir:    "class_notes",
		UserAgent:   DefaultUserAgent,
		LoginMarker: DefaultLoginMarker,
	}
}

// Load reads configuration from the given path. If configPath is empty
// or doesn't exist, returns defaults. A non-empty rootOverride replaces
// the configured output root.
func Load(configPath, rootOverride string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if rootOverride != "" {
		cfg.Root = rootOverride
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.NotesDir == "" {
		c.NotesDir = defaults.NotesDir
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.LoginMarker == "" {
		c.LoginMarker = defaults.LoginMarker
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if strings.TrimSpace(c.Root) == "" {
		errs = errs.Append("root", fmt.Errorf("cannot be empty"))
	}

	if c.TimeoutSeconds < 0 {
		errs = errs.Append("timeout_seconds", fmt.Errorf("cannot be negative"))
	}

	if strings.ContainsAny(c.NotesDir, `/\`) {
		errs = errs.Append("notes_dir", fmt.Errorf("must be a plain directory name, got %q", c.NotesDir))
	}

	for i, pattern := range c.Sections {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("sections[%d]", i), fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}

	return errs.ToError()
}

// Timeout returns the per-request timeout; zero means no timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HistoryFile returns the path to the download cache file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.Root, HistoryFileName)
}

// SubjectDir returns the output directory for a subject name.
func (c *Config) SubjectDir(subject string) string {
	return filepath.Join(c.Root, sanitize.Name(subject))
}

// IncludeSection reports whether a section title passes the configured
// section filters. An empty filter list includes everything.
func (c *Config) IncludeSection(title string) bool {
	if len(c.Sections) == 0 {
		return true
	}

	for _, pattern := range c.Sections {
		ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(title))
		if err == nil && ok {
			return true
		}
	}

	return false
}
