package nlsql

import (
	"regexp"
	"strings"

	"nlquery-engine/internal/model"
)

var (
	sqlKeywords = []string{"employee", "employees", "department", "dept", "hired", "salary", "role", "position"}
	docKeywords = []string{"resume", "document", "pdf", "contract", "clause", "policy", "termination"}

	// Skill and role tokens map to table columns, so they signal SQL intent
	// even without an explicit "employee" mention.
	skillRoleRe = regexp.MustCompile(`\b(python|javascript|sql|nlp|ml|developer|engineer|manager)\b`)
)

// Classify routes a query to the structured, document or hybrid path.
// Ambiguous queries default to sql so document matches only show up when the
// user asked for documents.
func Classify(query string) string {
	q := strings.ToLower(query)

	hasSQL := containsAnyWord(q, sqlKeywords) || skillRoleRe.MatchString(q)
	hasDoc := containsAnyWord(q, docKeywords)

	switch {
	case hasSQL && hasDoc:
		return model.ResultTypeHybrid
	case hasDoc:
		return model.ResultTypeDocument
	default:
		return model.ResultTypeSQL
	}
}

func containsAnyWord(q string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
