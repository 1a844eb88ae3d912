// Package messages holds the localized user-facing strings of the login
// form and negotiates a locale with golang.org/x/text/language.
package messages

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// Message keys shared by validators and the submission layer.
const (
	KeyEmailInvalid     = "email.invalid"
	KeyPasswordRequired = "password.required"
	KeyUserNotFound     = "auth.user_not_found"
	KeyWrongPassword    = "auth.wrong_password"
	KeyFieldRequired    = "field.required"
	KeyFieldPattern     = "field.pattern"
	KeyFieldMinLength   = "field.min_length"
	KeyWelcome          = "auth.welcome"
	KeySignedIn         = "auth.signed_in"
)

var english = map[string]string{
	KeyEmailInvalid:     "Please enter a valid e-mail address.",
	KeyPasswordRequired: "Please enter a password.",
	KeyUserNotFound:     "No account exists for this e-mail address.",
	KeyWrongPassword:    "The password does not match this account.",
	KeyFieldRequired:    "This field is required.",
	KeyFieldPattern:     "This value has an invalid format.",
	KeyFieldMinLength:   "Use at least %d characters.",
	KeyWelcome:          "Welcome %s",
	KeySignedIn:         "Signed in.",
}

var dutch = map[string]string{
	KeyEmailInvalid:     "Gelieve een correct e-mailadres in te voeren",
	KeyPasswordRequired: "Gelieve een wachtwoord in te voeren",
	KeyUserNotFound:     "Het e-mailadres kan niet gevonden worden.",
	KeyWrongPassword:    "Het wachtwoord is niet correct.",
	KeyFieldRequired:    "Dit veld is verplicht.",
	KeyFieldPattern:     "Deze waarde heeft een ongeldig formaat.",
	KeyFieldMinLength:   "Gebruik minstens %d tekens.",
	KeyWelcome:          "Welkom %s",
	KeySignedIn:         "Aangemeld.",
}

// Catalog stores message tables per language. The first registered language
// is the fallback for unmatched locales and missing keys.
type Catalog struct {
	mu      sync.RWMutex
	tags    []language.Tag
	tables  map[language.Tag]map[string]string
	matcher language.Matcher
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[language.Tag]map[string]string)}
}

// Default returns a catalog with English (fallback) and Dutch tables.
func Default() *Catalog {
	c := New()
	c.Add(language.English, english)
	c.Add(language.Dutch, dutch)
	return c
}

// Add merges messages into the table for tag.
func (c *Catalog) Add(tag language.Tag, messages map[string]string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[tag]
	if !ok {
		table = make(map[string]string, len(messages))
		c.tables[tag] = table
		c.tags = append(c.tags, tag)
		c.matcher = nil
	}
	for key, value := range messages {
		table[key] = value
	}
	return c
}

// Printer resolves the best matching table for locale ("nl-BE", "en", ...).
func (c *Catalog) Printer(locale string) Printer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tags) == 0 {
		return Printer{tag: language.Und}
	}
	if c.matcher == nil {
		c.matcher = language.NewMatcher(c.tags)
	}

	tag := c.tags[0]
	if parsed, err := language.Parse(locale); err == nil {
		_, index, confidence := c.matcher.Match(parsed)
		if confidence != language.No {
			tag = c.tags[index]
		}
	}

	return Printer{
		tag:      tag,
		messages: c.tables[tag],
		fallback: c.tables[c.tags[0]],
	}
}

// Printer formats messages for one resolved language.
type Printer struct {
	tag      language.Tag
	messages map[string]string
	fallback map[string]string
}

// Tag returns the resolved language.
func (p Printer) Tag() language.Tag {
	return p.tag
}

// Message returns the message for key, formatted with args when provided.
// Unknown keys fall back to the default language, then to the key itself.
func (p Printer) Message(key string, args ...any) string {
	format, ok := p.messages[key]
	if !ok {
		format, ok = p.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
