package nlsql

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CondKind enumerates the filter shapes the extractor recognizes. Conditions
// reference logical fields; the builder resolves them against the detected
// schema mapping.
type CondKind int

const (
	CondYearEq CondKind = iota
	CondYearAfter
	CondYearBefore
	CondYearBetween
	CondSkill
	CondReportsTo
	CondIDEquals
	CondEmailEquals
	CondMissing
	CondDeptName
	CondPositionAny
	CondNameLike
)

// Logical fields a CondMissing filter can target.
type Field string

const (
	FieldEmail      Field = "email"
	FieldName       Field = "name"
	FieldSkills     Field = "skills"
	FieldDepartment Field = "department"
	FieldPosition   Field = "position"
	FieldSalary     Field = "salary"
	FieldHireDate   Field = "hire_date"
	FieldReportsTo  Field = "reports_to"
)

type Condition struct {
	Kind  CondKind
	Field Field
	Args  []any
}

var (
	thisYearRe    = regexp.MustCompile(`\bthis year\b`)
	hiredInRe     = regexp.MustCompile(`hired\s+(?:in|on)\s+(\d{4})`)
	hiredAfterRe  = regexp.MustCompile(`hired\s+(?:after|since)\s+(\d{4})`)
	hiredBeforeRe = regexp.MustCompile(`hired\s+before\s+(\d{4})`)
	hiredBtwnRe   = regexp.MustCompile(`hired\s+between\s+(\d{4})\s+and\s+(\d{4})`)

	skillRe     = regexp.MustCompile(`\b(python|java|javascript|sql|nlp|ml|react|django|postgresql)\b`)
	reportsToRe = regexp.MustCompile(`reports\s+to\s+(?:'|")?([a-zA-Z]+(?:\s+[a-zA-Z]+)+)(?:'|")?`)
	empIDRe     = regexp.MustCompile(`\bemp_id\s*=?\s*(\d+)\b`)
	idRe        = regexp.MustCompile(`\bid\s*=?\s*(\d+)\b`)
	emailRe     = regexp.MustCompile(`([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`)

	deptNameRe = regexp.MustCompile(`department\s+(?:is\s+)?(?:'|")?([a-zA-Z]+)(?:'|")?`)
	positionRe = regexp.MustCompile(`\b(senior|junior|developer|engineer|manager|full\s*stack|marketing|hr)\b`)
	nameLikeRe = regexp.MustCompile(`\b(?:show\s+me|find|employee(?:\s+named)?)\s+(?:'|")?([a-zA-Z]+(?:\s+[a-zA-Z]+)?)(?:'|")?\b`)

	// Candidate names full of query vocabulary are regex spillover, not names.
	nameStopRe = regexp.MustCompile(`\b(with|without|who|whose|that|which|have|has|had|hired|named|name|email|emails|id|all|every|everyone|missing|no|the|a|an|reports?|employees?|department)\b`)
)

// missingFieldRes maps each logical field to the phrasings that mean
// "records where this field is empty".
var missingFieldRes = []struct {
	field Field
	res   []*regexp.Regexp
}{
	{FieldEmail, compileAll(`\b(no|missing|empty)\s+emails?\b`, `without\s+email`)},
	{FieldName, compileAll(`\b(no|missing|empty)\s+name\b`, `without\s+name`)},
	{FieldSkills, compileAll(`\b(no|missing|empty)\s+skills?\b`, `without\s+skills?`)},
	{FieldDepartment, compileAll(`\b(no|missing|empty)\s+departments?\b`, `without\s+department`)},
	{FieldPosition, compileAll(`\b(no|missing|empty)\s+positions?\b`, `without\s+position`)},
	{FieldSalary, compileAll(`\b(no|missing|empty)\s+salary\b`, `without\s+salary`)},
	{FieldHireDate, compileAll(`\b(no|missing|empty)\s+(hire|join)\s+date\b`, `without\s+(hire|join)\s+date`)},
	{FieldReportsTo, compileAll(`\b(no|missing|empty)\s+reports?\s*to\b`, `without\s+manager`, `without\s+reports?\s*to`)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// ExtractFilters pulls structured filters out of a normalized query.
func ExtractFilters(q string, now time.Time) []Condition {
	var conds []Condition

	// Hire date filters. "between" subsumes the year tokens of "after" and
	// "before", so it is checked first and suppresses the single-bound forms.
	if m := hiredBtwnRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondYearBetween, Args: []any{atoi(m[1]), atoi(m[2])}})
	} else {
		if thisYearRe.MatchString(q) {
			conds = append(conds, Condition{Kind: CondYearEq, Args: []any{now.Year()}})
		}
		if m := hiredInRe.FindStringSubmatch(q); m != nil {
			conds = append(conds, Condition{Kind: CondYearEq, Args: []any{atoi(m[1])}})
		}
		if m := hiredAfterRe.FindStringSubmatch(q); m != nil {
			conds = append(conds, Condition{Kind: CondYearAfter, Args: []any{atoi(m[1])}})
		}
		if m := hiredBeforeRe.FindStringSubmatch(q); m != nil {
			conds = append(conds, Condition{Kind: CondYearBefore, Args: []any{atoi(m[1])}})
		}
	}

	for _, m := range skillRe.FindAllStringSubmatch(q, -1) {
		conds = append(conds, Condition{Kind: CondSkill, Args: []any{m[1]}})
	}

	if m := reportsToRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondReportsTo, Args: []any{strings.TrimSpace(m[1])}})
	}

	if m := empIDRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondIDEquals, Args: []any{atoi(m[1])}})
	} else if m := idRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondIDEquals, Args: []any{atoi(m[1])}})
	}

	if m := emailRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondEmailEquals, Args: []any{m[1]}})
	}

	for _, mf := range missingFieldRes {
		for _, re := range mf.res {
			if re.MatchString(q) {
				conds = append(conds, Condition{Kind: CondMissing, Field: mf.field})
				break
			}
		}
	}

	if m := deptNameRe.FindStringSubmatch(q); m != nil {
		conds = append(conds, Condition{Kind: CondDeptName, Args: []any{m[1]}})
	}

	if kws := positionRe.FindAllStringSubmatch(q, -1); len(kws) > 0 {
		args := make([]any, len(kws))
		for i, m := range kws {
			args[i] = m[1]
		}
		conds = append(conds, Condition{Kind: CondPositionAny, Args: args})
	}

	if m := nameLikeRe.FindStringSubmatch(q); m != nil {
		name := strings.TrimSpace(m[1])
		if len(name) >= 2 && !nameStopRe.MatchString(name) {
			conds = append(conds, Condition{Kind: CondNameLike, Args: []any{name}})
		}
	}

	return conds
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
