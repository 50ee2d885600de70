package typeinfo

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// Plural returns the plural form of a name.
func Plural(name string) string {
	return pluralizeClient.Plural(name)
}

// Singular returns the singular form of a name.
func Singular(name string) string {
	return pluralizeClient.Singular(name)
}

// SnakeCase converts a Go identifier to snake_case. Acronym runs stay
// together: "HTTPServer" becomes "http_server", "UserID" becomes "user_id".
func SnakeCase(name string) string {
	if name == "" {
		return ""
	}

	if strings.Contains(name, "_") && !hasUpper(name) {
		return strings.ToLower(name)
	}

	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// Underscore before an uppercase rune when the previous rune is
			// lower/digit (aB -> a_b) or when an acronym run ends (ABc -> a_bc).
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// CamelCase converts a name to camelCase.
func CamelCase(name string) string {
	pascal := PascalCase(name)
	if pascal == "" {
		return ""
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// PascalCase converts a name to PascalCase.
func PascalCase(name string) string {
	snake := SnakeCase(name)
	if snake == "" {
		return ""
	}

	parts := strings.Split(snake, "_")
	var b strings.Builder
	b.Grow(len(snake))

	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}

	return b.String()
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
