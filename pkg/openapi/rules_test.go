package openapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

const loginDocument = `
openapi: 3.0.3
info:
  title: accounts
  version: 1.0.0
paths:
  /sessions:
    post:
      operationId: signIn
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [email, password]
              properties:
                email:
                  type: string
                  format: email
                password:
                  type: string
                  minLength: 8
                remember:
                  type: boolean
                locale:
                  type: string
                  default: nl
                  pattern: "^[a-z]{2}$"
      responses:
        "204":
          description: signed in
`

func TestRuleSetFromOperation(t *testing.T) {
	doc, err := Load(context.Background(), []byte(loginDocument), Options{})
	require.NoError(t, err)

	rs, err := RuleSetFromOperation(doc, "signIn")
	require.NoError(t, err)
	require.True(t, rs.Compiled())

	assert.Equal(t, form.Values{"email": "", "password": "", "locale": "nl"}, rs.Defaults().Values())

	validate := rs.Validator(messages.Default().Printer("en"))
	assert.Equal(t, form.Errors{}, validate(form.Values{"email": "", "password": "", "locale": "nl"}, false))
	assert.Equal(t, form.Errors{
		"email":    "This field is required.",
		"password": "This field is required.",
	}, validate(form.Values{"email": "", "password": "", "locale": "nl"}, true))
	assert.Equal(t, form.Errors{
		"email":    "Please enter a valid e-mail address.",
		"password": "Use at least 8 characters.",
		"locale":   "This value has an invalid format.",
	}, validate(form.Values{"email": "bad", "password": "short", "locale": "NL"}, false))
}

func TestRuleSetFromOperation_NotFound(t *testing.T) {
	doc, err := Load(context.Background(), []byte(loginDocument), Options{})
	require.NoError(t, err)

	_, err = RuleSetFromOperation(doc, "missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), nil, Options{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, []byte(loginDocument), Options{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = RuleSetFromOperation(nil, "signIn")
	assert.Error(t, err)
}
