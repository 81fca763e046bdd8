// Package strcase converts Go identifiers to the snake_case keys used in
// error payloads.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts s to lower snake_case. Acronyms stay one word
// (IdentityID -> identity_id, HTTPServer -> http_server) and spaces, hyphens
// and dots become underscores.
func ToLowerSnake(s string) string {
	runes := []rune(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(runes) + 4)

	sep := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}

	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '_':
			sep()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sep()
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSuffix(b.String(), "_")
}
