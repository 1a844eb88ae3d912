package validation

import (
	"regexp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// emailPattern accepts a dotted local part or a quoted string, followed by
// either a bracketed IPv4 literal or a domain with an alphabetic TLD of at
// least two letters.
var emailPattern = regexp.MustCompile(`^(([^<>()[\]\\.,;:\s@"]+(\.[^<>()[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// IsEmail reports whether value has the shape of an e-mail address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// Login validates the email/password form. The email is checked once it
// holds a value or the form was submitted; an empty password is only
// reported after a submit.
func Login(printer messages.Printer) form.Validator {
	return func(values form.Values, submitted bool) form.Errors {
		errs := form.Errors{}

		email := values["email"]
		if (email != "" || submitted) && !IsEmail(email) {
			errs["email"] = printer.Message(messages.KeyEmailInvalid)
		}
		if values["password"] == "" && submitted {
			errs["password"] = printer.Message(messages.KeyPasswordRequired)
		}
		return errs
	}
}
