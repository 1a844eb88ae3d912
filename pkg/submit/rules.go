package submit

import (
	"github.com/goliatone/go-formstate/pkg/auth"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// Rule maps a failure code to a message shown on one field.
type Rule struct {
	Code    string
	Field   string
	Message string
}

// DefaultRules returns the login rules: unknown account on the email field
// and a mismatched credential on the password field.
func DefaultRules(printer messages.Printer) []Rule {
	return []Rule{
		{
			Code:    auth.CodeUserNotFound,
			Field:   "email",
			Message: printer.Message(messages.KeyUserNotFound),
		},
		{
			Code:    auth.CodeWrongPassword,
			Field:   "password",
			Message: printer.Message(messages.KeyWrongPassword),
		},
	}
}
