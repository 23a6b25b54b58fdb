package nlsql

import "regexp"

// Intent shapes the generated SQL.
type Intent string

const (
	IntentSelect          Intent = "select"
	IntentCount           Intent = "count"
	IntentAvgByDept       Intent = "avg_by_dept"
	IntentTopPaidEachDept Intent = "top_paid_each_dept"
	IntentFindOne         Intent = "find_one"
)

var (
	countRe      = regexp.MustCompile(`\b(how many|count|number of)\b`)
	avgSalaryRe  = regexp.MustCompile(`\baverage\s+salary\b`)
	departmentRe = regexp.MustCompile(`\bdepartment\b`)
	topNRe       = regexp.MustCompile(`\btop\s*\d+\b`)
	perDeptRe    = regexp.MustCompile(`\b(each\s+department|per\s+department)\b`)
	emailHintRe  = regexp.MustCompile(`email\s*[:=]`)
	idHintRe     = regexp.MustCompile(`\bid\s*[:=]?\s*\d+\b`)
	whichEmpRe   = regexp.MustCompile(`\bwhich\s+employee\b`)
)

// RuleIntent is the regex fallback used when the embedding intent model has
// no confident answer. Input must already be normalized.
func RuleIntent(q string) Intent {
	switch {
	case countRe.MatchString(q):
		return IntentCount
	case avgSalaryRe.MatchString(q) && departmentRe.MatchString(q):
		return IntentAvgByDept
	case topNRe.MatchString(q) && perDeptRe.MatchString(q):
		return IntentTopPaidEachDept
	case emailHintRe.MatchString(q) || idHintRe.MatchString(q) || whichEmpRe.MatchString(q):
		return IntentFindOne
	default:
		return IntentSelect
	}
}
