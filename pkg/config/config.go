// Package config loads the login form configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Provider names.
const (
	ProviderSQLite   = "sqlite"
	ProviderFirebase = "firebase"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the root configuration document.
type Config struct {
	Locale   string         `yaml:"locale"`
	LogLevel string         `yaml:"log_level"`
	Provider string         `yaml:"provider"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Submit   SubmitConfig   `yaml:"submit"`
	Reset    ResetConfig    `yaml:"reset"`
	Form     FormConfig     `yaml:"form"`
	Theme    ThemeConfig    `yaml:"theme"`
}

// SQLiteConfig configures the local credential store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// FirebaseConfig configures the Identity Toolkit client.
type FirebaseConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// SubmitConfig configures submission handling.
type SubmitConfig struct {
	Policy      string `yaml:"policy"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// ResetConfig mirrors form.ResetScope.
type ResetConfig struct {
	Submitted    bool `yaml:"submitted"`
	ServerErrors bool `yaml:"server_errors"`
}

// FormConfig points at an optional form definition. Rules is a RuleSet YAML
// file; OpenAPI plus Operation derive the rules from a request body schema.
type FormConfig struct {
	Rules     string `yaml:"rules"`
	OpenAPI   string `yaml:"openapi"`
	Operation string `yaml:"operation"`
}

// ThemeConfig selects a go-theme manifest for the HTML renderer. Manifests
// are files or directories holding theme.json/yaml or manifest.json/yaml.
// Tokens override the base tokens of the named theme, or declare it inline
// when no manifest provides it.
type ThemeConfig struct {
	Name      string            `yaml:"name"`
	Variant   string            `yaml:"variant"`
	Manifests []string          `yaml:"manifests"`
	Tokens    map[string]string `yaml:"tokens"`
}

// inlineThemeVersion versions themes declared only through Tokens.
const inlineThemeVersion = "0.0.0"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Locale:   "en",
		LogLevel: "info",
		Provider: ProviderSQLite,
		SQLite:   SQLiteConfig{Path: "formstate.db"},
		Submit: SubmitConfig{
			Policy:      form.SubmitReject.String(),
			MaxAttempts: 3,
		},
	}
}

// LookupFunc resolves environment variables.
type LookupFunc func(key string) (string, bool)

// Option configures Load.
type Option func(*loader)

type loader struct {
	lookup LookupFunc
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup LookupFunc) Option {
	return func(l *loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// Load reads path (optional), applies environment overrides and validates
// the result.
func Load(path string, options ...Option) (*Config, error) {
	l := &loader{lookup: os.LookupEnv}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(l.lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(target *string, keys ...string) {
		for _, key := range keys {
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				*target = strings.TrimSpace(value)
				return
			}
		}
	}
	str(&c.Locale, "FORMSTATE_LOCALE")
	str(&c.LogLevel, "FORMSTATE_LOG_LEVEL")
	str(&c.Provider, "FORMSTATE_PROVIDER")
	str(&c.SQLite.Path, "FORMSTATE_SQLITE_PATH")
	str(&c.Firebase.APIKey, "FORMSTATE_FIREBASE_API_KEY", "REACT_APP_FIREBASE_API_KEY")
	str(&c.Firebase.Endpoint, "FORMSTATE_FIREBASE_ENDPOINT")
	str(&c.Submit.Policy, "FORMSTATE_SUBMIT_POLICY")

	if raw, ok := lookup("FORMSTATE_MAX_ATTEMPTS"); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: FORMSTATE_MAX_ATTEMPTS: %v", ErrInvalidConfig, err)
		}
		c.Submit.MaxAttempts = n
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []string

	switch c.Provider {
	case ProviderSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			problems = append(problems, "sqlite.path is required")
		}
	case ProviderFirebase:
		if strings.TrimSpace(c.Firebase.APIKey) == "" {
			problems = append(problems, "firebase.api_key is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.Provider))
	}
	if _, err := c.SubmitPolicy(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Submit.MaxAttempts < 0 {
		problems = append(problems, "submit.max_attempts must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		problems = append(problems, fmt.Sprintf("log_level: %v", err))
	}
	if c.Form.Rules != "" && c.Form.OpenAPI != "" {
		problems = append(problems, "form.rules and form.openapi are mutually exclusive")
	}
	if c.Form.OpenAPI != "" && strings.TrimSpace(c.Form.Operation) == "" {
		problems = append(problems, "form.operation is required with form.openapi")
	}
	if strings.TrimSpace(c.Theme.Name) == "" && (len(c.Theme.Manifests) > 0 || len(c.Theme.Tokens) > 0) {
		problems = append(problems, "theme.name is required with theme.manifests or theme.tokens")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SubmitPolicy parses Submit.Policy.
func (c *Config) SubmitPolicy() (form.SubmitPolicy, error) {
	return form.ParseSubmitPolicy(c.Submit.Policy)
}

// ResetScope converts Reset.
func (c *Config) ResetScope() form.ResetScope {
	return form.ResetScope{
		Submitted:    c.Reset.Submitted,
		ServerErrors: c.Reset.ServerErrors,
	}
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// ThemeProvider loads the configured manifests into a go-theme registry. It
// returns nil when no theme is configured.
func (c *Config) ThemeProvider() (theme.ThemeProvider, error) {
	t := c.Theme
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, nil
	}

	manifests := make([]*theme.Manifest, 0, len(t.Manifests)+1)
	var named *theme.Manifest
	for _, location := range t.Manifests {
		manifest, err := loadManifest(location)
		if err != nil {
			return nil, err
		}
		if manifest.Name == name {
			named = manifest
		}
		manifests = append(manifests, manifest)
	}

	if len(t.Tokens) > 0 {
		if named == nil {
			named = &theme.Manifest{Name: name, Version: inlineThemeVersion}
			manifests = append(manifests, named)
		}
		if named.Tokens == nil {
			named.Tokens = make(map[string]string, len(t.Tokens))
		}
		for key, value := range t.Tokens {
			named.Tokens[key] = value
		}
	}

	registry := theme.NewRegistry()
	for _, manifest := range manifests {
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("config: register theme %q: %w", manifest.Name, err)
		}
	}
	if len(registry.Themes()) == 0 {
		return nil, nil
	}
	return registry, nil
}

func loadManifest(location string) (*theme.Manifest, error) {
	location = strings.TrimSpace(location)
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("config: theme manifest: %w", err)
	}

	var manifest *theme.Manifest
	if info.IsDir() {
		manifest, err = theme.LoadDir(os.DirFS(location), ".")
	} else {
		manifest, err = theme.LoadFile(os.DirFS(filepath.Dir(location)), filepath.Base(location))
	}
	if err != nil {
		return nil, fmt.Errorf("config: load theme %s: %w", location, err)
	}
	return manifest, nil
}
