package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark under NFD.
var foldings = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'ł': "l",
	'þ': "th",
}

// Normalize lowercases source, strips diacritics and collapses every run of
// characters outside [a-z0-9] into a single separator.
func Normalize(source, separator string) (string, error) {
	if separator == "" {
		separator = DefaultSeparator
	}

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, strings.ToLower(source))
	if err != nil {
		folded = strings.ToLower(source)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pending := false
	write := func(s string) {
		if pending && b.Len() > 0 {
			b.WriteString(separator)
		}
		pending = false
		b.WriteString(s)
	}
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			write(string(r))
		case foldings[r] != "":
			write(foldings[r])
		default:
			pending = true
		}
	}

	out := b.String()
	if out == "" {
		return "", ErrEmptySource
	}
	return out, nil
}
