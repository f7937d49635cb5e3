package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var legalSuffixes = regexp.MustCompile(
	`(?i)\s*,?\s*(s\.?r\.?o\.?|a\.?s\.?|spol\.?(\s+s\s+r\.?o\.?)?|` +
		`o\.?p\.?s\.?|ltd\.?|inc\.?|corp\.?)\s*\.?\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

var diacriticFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeCompanyName lowercases, strips legal-entity suffixes and collapses
// whitespace so that name variants compare equal.
func NormalizeCompanyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = legalSuffixes.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// FoldDiacritics strips combining marks so Czech names compare by base letters.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizePhone reduces a phone number to digits plus an optional leading
// plus sign. Numbers that parse as valid Czech numbers are rendered in E.164
// first so formatting variants converge.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	if num, err := phonenumbers.Parse(trimmed, "CZ"); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164)
	}

	var b strings.Builder
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeWebsite strips protocol, leading www. and trailing slash.
func NormalizeWebsite(website string) string {
	w := strings.ToLower(strings.TrimSpace(website))
	w = strings.TrimPrefix(w, "https://")
	w = strings.TrimPrefix(w, "http://")
	w = strings.TrimPrefix(w, "www.")
	return strings.TrimSuffix(w, "/")
}

// websiteDomain returns the host portion of a normalized website string.
func websiteDomain(normalized string) string {
	if i := strings.IndexAny(normalized, "/?#"); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// emailDomain returns the part after '@', lowercased, or "" when absent.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// digitCount counts decimal digits in s.
func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
