package slug

import (
	"crypto/rand"
	"strconv"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SuffixFunc derives a disambiguated candidate from a colliding base slug.
// existing holds the slugs already taken that share the base prefix.
type SuffixFunc func(base, separator string, existing []string) string

// RandomSuffix appends separator plus n random lowercase alphanumerics.
func RandomSuffix(n int) SuffixFunc {
	return func(base, separator string, _ []string) string {
		return base + separator + randomString(n)
	}
}

// CounterSuffix appends the next free numeric counter, starting at 2.
func CounterSuffix() SuffixFunc {
	return func(base, separator string, existing []string) string {
		next := 2
		prefix := base + separator
		for _, s := range existing {
			if !strings.HasPrefix(s, prefix) {
				continue
			}
			n, err := strconv.Atoi(strings.TrimPrefix(s, prefix))
			if err == nil && n >= next {
				next = n + 1
			}
		}
		return prefix + strconv.Itoa(next)
	}
}

// randomString draws from crypto/rand with rejection sampling so every
// character of the alphabet is equally likely.
func randomString(n int) string {
	if n <= 0 {
		return ""
	}
	const limit = 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		_, _ = rand.Read(buf)
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			out = append(out, alphabet[int(c)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
