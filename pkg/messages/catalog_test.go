package messages

import (
	"testing"

	"golang.org/x/text/language"
)

func TestPrinter_NegotiatesLocale(t *testing.T) {
	catalog := Default()

	cases := []struct {
		locale string
		want   language.Tag
	}{
		{locale: "nl", want: language.Dutch},
		{locale: "nl-BE", want: language.Dutch},
		{locale: "en-US", want: language.English},
		{locale: "", want: language.English},
		{locale: "ja", want: language.English},
	}
	for _, tc := range cases {
		got := catalog.Printer(tc.locale).Tag()
		if got != tc.want {
			t.Fatalf("locale %q: want %s, got %s", tc.locale, tc.want, got)
		}
	}
}

func TestPrinter_Message(t *testing.T) {
	nl := Default().Printer("nl")

	if got := nl.Message(KeyUserNotFound); got != "Het e-mailadres kan niet gevonden worden." {
		t.Fatalf("unexpected dutch message %q", got)
	}
	if got := nl.Message(KeyFieldMinLength, 8); got != "Gebruik minstens 8 tekens." {
		t.Fatalf("unexpected formatted message %q", got)
	}
	if got := nl.Message(KeyWelcome, "Ada"); got != "Welkom Ada" {
		t.Fatalf("unexpected welcome message %q", got)
	}
	if got := nl.Message("missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo for missing message, got %q", got)
	}
}

func TestPrinter_FallsBackToDefaultLanguage(t *testing.T) {
	catalog := Default()
	catalog.Add(language.French, map[string]string{KeyEmailInvalid: "Adresse e-mail invalide."})

	fr := catalog.Printer("fr")
	if got := fr.Message(KeyEmailInvalid); got != "Adresse e-mail invalide." {
		t.Fatalf("unexpected french message %q", got)
	}
	if got := fr.Message(KeyPasswordRequired); got != english[KeyPasswordRequired] {
		t.Fatalf("expected english fallback, got %q", got)
	}
}

func TestPrinter_EmptyCatalog(t *testing.T) {
	if got := New().Printer("en").Message(KeyEmailInvalid); got != KeyEmailInvalid {
		t.Fatalf("empty catalog should echo keys, got %q", got)
	}
}
