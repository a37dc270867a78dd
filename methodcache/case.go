package methodcache

import (
	"strings"
	"unicode"
)

// normalizeName turns a cache name such as "BookService.GetBook" or "book-titles v2"
// into a snake_case namespace ("book_service_get_book", "book_titles_v2").
// Punctuation collapses into a single underscore so the namespace never contains
// the key separator and stays safe for Redis key patterns.
func normalizeName(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pendingUnderscore := false
	write := func(r rune) {
		if pendingUnderscore && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingUnderscore = false
		b.WriteRune(r)
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pendingUnderscore = true
				}
			}
			write(unicode.ToLower(r))
		case unicode.IsLower(r), unicode.IsDigit(r):
			write(r)
		default:
			pendingUnderscore = true
		}
	}

	return b.String()
}
