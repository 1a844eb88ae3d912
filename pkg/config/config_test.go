package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/form"
)

func envLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", WithLookup(envLookup(nil)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	policy, err := cfg.SubmitPolicy()
	require.NoError(t, err)
	assert.Equal(t, form.SubmitReject, policy)
	assert.Equal(t, form.ResetScope{}, cfg.ResetScope())
	provider, err := cfg.ThemeProvider()
	require.NoError(t, err)
	assert.Nil(t, provider)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locale: nl
log_level: debug
provider: firebase
firebase:
  endpoint: http://localhost:9099
submit:
  policy: overlap
reset:
  submitted: true
  server_errors: true
`), 0o600))

	cfg, err := Load(path, WithLookup(envLookup(map[string]string{
		"REACT_APP_FIREBASE_API_KEY": "web-key",
		"FORMSTATE_MAX_ATTEMPTS":     "5",
	})))
	require.NoError(t, err)

	assert.Equal(t, "nl", cfg.Locale)
	assert.Equal(t, ProviderFirebase, cfg.Provider)
	assert.Equal(t, "web-key", cfg.Firebase.APIKey)
	assert.Equal(t, "http://localhost:9099", cfg.Firebase.Endpoint)
	assert.Equal(t, 5, cfg.Submit.MaxAttempts)
	assert.Equal(t, form.ResetScope{Submitted: true, ServerErrors: true}, cfg.ResetScope())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	policy, err := cfg.SubmitPolicy()
	require.NoError(t, err)
	assert.Equal(t, form.SubmitOverlap, policy)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	cfg, err := Load("", WithLookup(envLookup(map[string]string{
		"FORMSTATE_PROVIDER":         "firebase",
		"FORMSTATE_FIREBASE_API_KEY": "primary",
		"REACT_APP_FIREBASE_API_KEY": "legacy",
	})))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Firebase.APIKey)
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	_, err := Load("", WithLookup(envLookup(map[string]string{"FORMSTATE_MAX_ATTEMPTS": "many"})))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), WithLookup(envLookup(nil)))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("providr: sqlite\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown provider":       "provider: ldap\n",
		"firebase without key":   "provider: firebase\n",
		"empty sqlite path":      "sqlite:\n  path: \"\"\n",
		"bad policy":             "submit:\n  policy: queue\n",
		"bad log level":          "log_level: loud\n",
		"rules and openapi":      "form:\n  rules: a.yaml\n  openapi: b.yaml\n  operation: login\n",
		"openapi sans operation": "form:\n  openapi: b.yaml\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestThemeProvider_InlineTokens(t *testing.T) {
	cfg, err := Parse([]byte("theme:\n  name: acme\n  variant: dark\n  tokens:\n    brand: \"#123456\"\n"))
	require.NoError(t, err)

	provider, err := cfg.ThemeProvider()
	require.NoError(t, err)
	require.NotNil(t, provider)

	manifest, err := provider.Theme("acme")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"brand": "#123456"}, manifest.Tokens)
}

func TestThemeProvider_ManifestFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"acme","version":"2.0.0","tokens":{"brand":"#111111","radius":"4px"},"variants":{"dark":{"tokens":{"brand":"#000000"}}}}`), 0o600))

	cfg := Default()
	cfg.Theme = ThemeConfig{
		Name:      "acme",
		Variant:   "dark",
		Manifests: []string{path},
		Tokens:    map[string]string{"radius": "8px"},
	}
	provider, err := cfg.ThemeProvider()
	require.NoError(t, err)
	require.NotNil(t, provider)

	selection, err := theme.Selector{Registry: provider}.Select(cfg.Theme.Name, cfg.Theme.Variant)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", selection.Manifest.Version)
	assert.Equal(t, map[string]string{"brand": "#000000", "radius": "8px"}, selection.Tokens())
}

func TestThemeProvider_Errors(t *testing.T) {
	missing := Default()
	missing.Theme = ThemeConfig{Name: "acme", Manifests: []string{filepath.Join(t.TempDir(), "nope.yaml")}}
	_, err := missing.ThemeProvider()
	assert.Error(t, err)

	invalid := Default()
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: acme\n"), 0o600))
	invalid.Theme = ThemeConfig{Name: "acme", Manifests: []string{path}}
	_, err = invalid.ThemeProvider()
	assert.Error(t, err)

	unnamed := Default()
	unnamed.Theme = ThemeConfig{Tokens: map[string]string{"brand": "#fff"}}
	assert.ErrorIs(t, unnamed.Validate(), ErrInvalidConfig)
}
