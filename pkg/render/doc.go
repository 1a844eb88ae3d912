// Package render turns a login form snapshot into HTML using pongo2
// templates. Validation and server messages are sanitized before they reach
// the template and optional go-theme tokens are exposed as CSS variables.
package render
