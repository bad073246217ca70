// internal/app/system/normalize/normalize.go
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username trims a username. Case is preserved.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Name trims a person or place name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a user role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Enum trims and lowercases an enumerated value such as a property type
// or listing status.
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces, dashes, dots and parentheses from a phone number.
func Phone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// HasMarkup reports whether s contains HTML tags, comments or other markup
// the strict sanitizer would remove. Plain text that merely contains "<",
// ">" or entities such as "&amp;" is not markup.
func HasMarkup(s string) bool {
	return html.UnescapeString(strict.Sanitize(s)) != html.UnescapeString(s)
}
