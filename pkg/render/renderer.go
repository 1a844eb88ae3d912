package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// DefaultTemplate is the name of the bundled login template.
const DefaultTemplate = "login.tmpl"

// ThemePartial is the manifest template key a theme uses to replace the
// login template. Its path is resolved against the template filesystem.
const ThemePartial = "forms.login"

// ThemeStylesheet is the manifest asset key linked from the login template.
const ThemeStylesheet = "stylesheet"

// ErrNilRenderer is returned when Render is called on a nil renderer.
var ErrNilRenderer = errors.New("render: renderer is nil")

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplates replaces the template filesystem.
func WithTemplates(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.files = files
		}
	}
}

// WithTemplateName selects the template rendered by Render.
func WithTemplateName(name string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			r.name = trimmed
		}
	}
}

// WithTheme exposes theme tokens and CSS variables to the template.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		r.theme = cfg
	}
}

// WithThemeSelector resolves name and variant through selector when the
// renderer is built. The selection replaces any WithTheme config.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(r *Renderer) {
		r.selector = selector
		r.themeName = strings.TrimSpace(name)
		r.variant = strings.TrimSpace(variant)
	}
}

// WithThemeProvider selects name and variant from provider, falling back to
// them as defaults when a lookup misses.
func WithThemeProvider(provider theme.ThemeProvider, name, variant string) Option {
	if provider == nil {
		return nil
	}
	return WithThemeSelector(theme.Selector{
		Registry:       provider,
		DefaultTheme:   strings.TrimSpace(name),
		DefaultVariant: strings.TrimSpace(variant),
	}, name, variant)
}

// WithSubmitLabel sets the submit button caption.
func WithSubmitLabel(label string) Option {
	return func(r *Renderer) {
		r.submitLabel = label
	}
}

// Renderer renders login views to HTML.
type Renderer struct {
	files       fs.FS
	name        string
	theme       *theme.RendererConfig
	selector    theme.ThemeSelector
	themeName   string
	variant     string
	submitLabel string
	policy      *bluemonday.Policy
	tmpl        *pongo2.Template
}

// New parses the configured template.
func New(options ...Option) (*Renderer, error) {
	templates, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: embedded templates: %w", err)
	}
	r := &Renderer{
		files:       templates,
		name:        DefaultTemplate,
		submitLabel: "Sign in",
		policy:      bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.selector != nil {
		if err := r.selectTheme(); err != nil {
			return nil, err
		}
	}

	set := pongo2.NewSet("formstate", pongo2.NewFSLoader(r.files))
	tmpl, err := set.FromFile(r.name)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", r.name, err)
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) selectTheme() error {
	selection, err := r.selector.Select(r.themeName, r.variant)
	if err != nil {
		return fmt.Errorf("render: select theme %q: %w", r.themeName, err)
	}
	if selection == nil {
		return fmt.Errorf("render: select theme %q: empty selection", r.themeName)
	}
	cfg := selection.RendererTheme(map[string]string{ThemePartial: r.name})
	if name := strings.TrimSpace(cfg.Partials[ThemePartial]); name != "" {
		r.name = name
	}
	r.theme = &cfg
	return nil
}

// Render executes the template against the view.
func (r *Renderer) Render(ctx context.Context, view View) ([]byte, error) {
	if r == nil || r.tmpl == nil {
		return nil, ErrNilRenderer
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := make([]FieldView, len(view.Fields))
	copy(fields, view.Fields)
	for i := range fields {
		fields[i].Error = r.sanitize(fields[i].Error)
		fields[i].ServerError = r.sanitize(fields[i].ServerError)
	}
	view.Fields = fields
	viewCtx, err := toContext(view)
	if err != nil {
		return nil, fmt.Errorf("render: convert view: %w", err)
	}

	data := pongo2.Context{
		"view":         viewCtx,
		"theme":        themeContext(r.theme),
		"submit_label": r.submitLabel,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteWriter(data, &buf); err != nil {
		return nil, fmt.Errorf("render: execute template %q: %w", r.name, err)
	}
	return buf.Bytes(), nil
}

// sanitize strips markup; the strict policy escapes the remaining text, so
// the template prints it with |safe.
func (r *Renderer) sanitize(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	return r.policy.Sanitize(msg)
}

func toContext(view View) (map[string]any, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	vars := make(map[string]string, len(cfg.CSSVars)+len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		vars["--"+strings.TrimPrefix(key, "--")] = value
	}
	for key, value := range cfg.CSSVars {
		vars[key] = value
	}
	var stylesheet string
	if cfg.AssetURL != nil {
		stylesheet = cfg.AssetURL(ThemeStylesheet)
	}
	return map[string]any{
		"name":       cfg.Theme,
		"variant":    cfg.Variant,
		"style":      cssVarsStyle(vars),
		"stylesheet": stylesheet,
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
