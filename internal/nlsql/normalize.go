// Package nlsql translates natural-language employee queries into SQL:
// classification (sql / document / hybrid), intent detection, filter
// extraction, schema-variant mapping and statement assembly.
package nlsql

import (
	"regexp"
	"strings"
)

// synonym rewrites applied before any matching, so the filter and intent
// rules only need the canonical vocabulary.
var synonyms = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bdept\b`), "department"},
	{regexp.MustCompile(`\bdivision\b`), "department"},
	{regexp.MustCompile(`\bcompensation\b`), "salary"},
	{regexp.MustCompile(`\bpay\b`), "salary"},
	{regexp.MustCompile(`\bstaff\b`), "employees"},
	{regexp.MustCompile(`\bemp\b`), "employees"},
	{regexp.MustCompile(`\bdepartements\b`), "departments"},
}

// Normalize lowercases the query and canonicalizes synonyms.
func Normalize(query string) string {
	q := strings.ToLower(query)
	for _, s := range synonyms {
		q = s.re.ReplaceAllString(q, s.replacement)
	}
	return q
}
