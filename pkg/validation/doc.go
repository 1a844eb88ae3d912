// Package validation provides form.Validator implementations: the login
// validator and a declarative RuleSet loaded from YAML or JSON documents or
// derived from OpenAPI request schemas.
package validation
