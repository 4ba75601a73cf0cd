// Package fingerprint turns scan inputs into a stable cache/dedup key.
// Two logically identical businesses (same name, domain, city, category,
// differing only in casing, URL scheme, or stray whitespace) hash to the
// same token; the caching layer depends on that.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/localsignal/visibility-cli/internal/model"
)

const delimiter = "|"

var lower = cases.Lower(language.Und)

// Token computes the deterministic fingerprint for a scan request. The
// function is pure: identical inputs always return the same 64-char hex
// digest.
func Token(name, website, city, category string) string {
	parts := []string{
		normalizeText(name),
		model.NormalizeDomain(website),
		normalizeText(city),
		normalizeText(category),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, delimiter)))
	return hex.EncodeToString(sum[:])
}

// normalizeText lowercases, strips punctuation, and collapses runs of
// whitespace to single spaces.
func normalizeText(s string) string {
	s = lower.String(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
