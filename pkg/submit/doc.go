// Package submit bridges a form submission to an auth.Authenticator and
// turns recognised failure codes into field-targeted server errors.
package submit
