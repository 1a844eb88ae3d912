// Package openapi derives form rule sets from OpenAPI 3 request bodies using
// kin-openapi, so a form's declared fields, defaults, and checks can follow
// the API contract it submits to.
package openapi
