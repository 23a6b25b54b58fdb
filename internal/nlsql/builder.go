package nlsql

import (
	"fmt"
	"regexp"
	"strings"

	"nlquery-engine/internal/schema"
)

// Statement is an executable query plus its optional COUNT companion for
// pagination totals.
type Statement struct {
	SQL       string
	Args      []any
	CountSQL  string
	CountArgs []any
	Limit     int
	Offset    int
	Paginated bool
}

type BuildInput struct {
	Query      string // normalized
	Intent     Intent
	Conditions []Condition
	Mapping    *Mapping
	Tables     map[string]bool
	Dialect    schema.Dialect
	Limit      int
	Offset     int
}

// Outcome carries either a runnable statement or a soft failure that becomes
// the sql result's error/warning field without touching the database.
type Outcome struct {
	Stmt    *Statement
	Err     string
	Warning string
}

var entityGuards = []struct {
	re    *regexp.Regexp
	table string
}{
	{regexp.MustCompile(`\bcontractors\b`), "contractors"},
	{regexp.MustCompile(`\bvendors?\b`), "vendors"},
	{regexp.MustCompile(`\binterns?\b`), "interns"},
	{regexp.MustCompile(`\bprojects?\b`), "projects"},
}

var (
	deptWordRe = regexp.MustCompile(`\bdepartments?\b`)
	empWordRe  = regexp.MustCompile(`\bemployees?\b`)
	topNumRe   = regexp.MustCompile(`top\s*(\d+)`)
)

// Build assembles SQL for the query. Filters on columns the connected schema
// does not have degrade to the original error/warning behavior instead of
// producing broken SQL.
func Build(in BuildInput) Outcome {
	for _, g := range entityGuards {
		if g.re.MatchString(in.Query) && !in.Tables[g.table] {
			return Outcome{Err: fmt.Sprintf("error: not present in your database (missing entity: '%s')", g.table)}
		}
	}

	if deptWordRe.MatchString(in.Query) && !empWordRe.MatchString(in.Query) {
		return buildDeptListing(in)
	}

	e := in.Mapping.Emp
	et := in.Mapping.EmpTable
	colID := e.ID
	colSal := orDefault(e.Salary, "annual_salary")
	colHire := orDefault(e.HireDate, "join_date")
	colReports := orDefault(e.ReportsTo, "reports_to")
	dt := in.Mapping.DeptTable
	d := in.Mapping.Dept
	hasDept := dt != "" && d != nil

	var (
		exprs []string
		args  []any
	)
	yearExpr := in.Dialect.YearExpr("e." + colHire)
	for _, c := range in.Conditions {
		switch c.Kind {
		case CondYearEq:
			exprs, args = append(exprs, yearExpr+" = ?"), append(args, c.Args...)
		case CondYearAfter:
			exprs, args = append(exprs, yearExpr+" > ?"), append(args, c.Args...)
		case CondYearBefore:
			exprs, args = append(exprs, yearExpr+" < ?"), append(args, c.Args...)
		case CondYearBetween:
			exprs, args = append(exprs, yearExpr+" BETWEEN ? AND ?"), append(args, c.Args...)

		case CondSkill:
			kw := "%" + c.Args[0].(string) + "%"
			if e.Skills != "" {
				exprs = append(exprs, fmt.Sprintf("(e.%s LIKE ? OR e.%s LIKE ?)", e.Skills, e.Position))
				args = append(args, kw, kw)
			} else {
				exprs = append(exprs, fmt.Sprintf("e.%s LIKE ?", e.Position))
				args = append(args, kw)
			}

		case CondReportsTo:
			exprs = append(exprs, fmt.Sprintf("lower(e.%s) = lower(?)", colReports))
			args = append(args, c.Args...)

		case CondIDEquals:
			exprs = append(exprs, fmt.Sprintf("e.%s = ?", colID))
			args = append(args, c.Args...)

		case CondEmailEquals:
			if e.Email == "" {
				return Outcome{Err: "error: not present in your database (email column missing)"}
			}
			exprs = append(exprs, fmt.Sprintf("lower(e.%s) = lower(?)", e.Email))
			args = append(args, c.Args...)

		case CondMissing:
			expr, warn := missingExpr(c.Field, e, colSal, colHire, colReports)
			if warn != "" {
				return Outcome{Warning: warn}
			}
			exprs = append(exprs, expr)

		case CondDeptName:
			kw := "%" + c.Args[0].(string) + "%"
			if hasDept {
				exprs = append(exprs, fmt.Sprintf("d.%s LIKE ?", d.Name))
			} else {
				exprs = append(exprs, fmt.Sprintf("e.%s LIKE ?", e.DeptFK))
			}
			args = append(args, kw)

		case CondPositionAny:
			likes := make([]string, len(c.Args))
			for i, a := range c.Args {
				likes[i] = fmt.Sprintf("e.%s LIKE ?", e.Position)
				args = append(args, "%"+a.(string)+"%")
			}
			exprs = append(exprs, "("+strings.Join(likes, " OR ")+")")

		case CondNameLike:
			exprs = append(exprs, fmt.Sprintf("e.%s LIKE ?", e.Name))
			args = append(args, "%"+c.Args[0].(string)+"%")
		}
	}

	whereSQL := ""
	if len(exprs) > 0 {
		whereSQL = " WHERE " + strings.Join(exprs, " AND ")
	}

	// Base projection: full employee row plus a resolved department label.
	// When the schema has an email column, a CTE keeps only the latest row
	// per email so re-imported employees are not listed twice.
	var withClause, joinLatest string
	if e.Email != "" {
		withClause = fmt.Sprintf("WITH latest AS (SELECT %s AS email, MAX(%s) AS max_id FROM %s GROUP BY %s) ",
			e.Email, colID, et, e.Email)
		joinLatest = fmt.Sprintf(" JOIN latest l ON l.max_id = e.%s", colID)
	}
	selectCols := "e.*"
	deptJoin := ""
	if hasDept {
		deptJoin = fmt.Sprintf(" LEFT JOIN %s d ON e.%s = d.%s", dt, e.DeptFK, d.ID)
		selectCols += fmt.Sprintf(", d.%s AS department", d.Name)
	} else {
		selectCols += fmt.Sprintf(", e.%s AS department", e.DeptFK)
	}
	base := fmt.Sprintf("%sSELECT %s FROM %s e%s%s", withClause, selectCols, et, joinLatest, deptJoin)

	switch {
	case in.Intent == IntentAvgByDept && hasDept:
		sqlText := fmt.Sprintf("SELECT d.%s AS department, AVG(e.%s) AS avg_salary FROM %s e LEFT JOIN %s d ON e.%s = d.%s",
			d.Name, colSal, et, dt, e.DeptFK, d.ID)
		sqlText += whereSQL
		sqlText += fmt.Sprintf(" GROUP BY d.%s ORDER BY avg_salary DESC", d.Name)
		return Outcome{Stmt: &Statement{SQL: in.Dialect.Rebind(sqlText), Args: args}}

	case in.Intent == IntentCount:
		sqlText := "SELECT COUNT(1) AS count FROM (" + base + whereSQL + ") t"
		return Outcome{Stmt: &Statement{SQL: in.Dialect.Rebind(sqlText), Args: args}}

	case in.Intent == IntentTopPaidEachDept && hasDept:
		part := fmt.Sprintf("SELECT e.%s AS id, e.%s AS name, e.%s AS salary, d.%s AS department, "+
			"ROW_NUMBER() OVER (PARTITION BY d.%s ORDER BY e.%s DESC) AS rn "+
			"FROM %s e LEFT JOIN %s d ON e.%s = d.%s",
			colID, e.Name, colSal, d.Name, d.Name, colSal, et, dt, e.DeptFK, d.ID)
		part += whereSQL
		topN := 5
		if m := topNumRe.FindStringSubmatch(in.Query); m != nil {
			topN = atoi(m[1])
		}
		sqlText := "SELECT * FROM (" + part + ") z WHERE z.rn <= ? ORDER BY z.department, z.salary DESC"
		return Outcome{Stmt: &Statement{SQL: in.Dialect.Rebind(sqlText), Args: append(args, topN)}}

	default:
		sqlText := base + whereSQL
		countSQL := "SELECT COUNT(1) AS total FROM (" + sqlText + ") t"
		countArgs := append([]any(nil), args...)

		limit, offset := clampPage(in.Limit, in.Offset)
		if in.Intent == IntentFindOne {
			limit, offset = 1, 0
		}
		sqlText += fmt.Sprintf(" ORDER BY e.%s ASC LIMIT ? OFFSET ?", colID)
		return Outcome{Stmt: &Statement{
			SQL:       in.Dialect.Rebind(sqlText),
			Args:      append(args, limit, offset),
			CountSQL:  in.Dialect.Rebind(countSQL),
			CountArgs: countArgs,
			Limit:     limit,
			Offset:    offset,
			Paginated: true,
		}}
	}
}

// buildDeptListing handles queries about departments alone, e.g.
// "list all departments". Only the department-name filter applies here.
func buildDeptListing(in BuildInput) Outcome {
	dt := in.Mapping.DeptTable
	if dt == "" {
		dt = "departments"
	}
	did, dname := "dept_id", "dept_name"
	if d := in.Mapping.Dept; d != nil {
		did, dname = d.ID, d.Name
	}

	var exprs []string
	var args []any
	for _, c := range in.Conditions {
		if c.Kind == CondDeptName {
			exprs = append(exprs, fmt.Sprintf("d.%s LIKE ?", dname))
			args = append(args, "%"+c.Args[0].(string)+"%")
		}
	}
	whereSQL := ""
	if len(exprs) > 0 {
		whereSQL = " WHERE " + strings.Join(exprs, " AND ")
	}

	sqlText := fmt.Sprintf("SELECT d.%s AS dept_id, d.%s AS dept_name, d.manager_id FROM %s d", did, dname, dt)
	countSQL := fmt.Sprintf("SELECT COUNT(1) AS total FROM %s d", dt) + whereSQL
	countArgs := append([]any(nil), args...)

	limit, offset := clampPage(in.Limit, in.Offset)
	sqlText += whereSQL + fmt.Sprintf(" ORDER BY d.%s ASC LIMIT ? OFFSET ?", did)
	return Outcome{Stmt: &Statement{
		SQL:       in.Dialect.Rebind(sqlText),
		Args:      append(args, limit, offset),
		CountSQL:  in.Dialect.Rebind(countSQL),
		CountArgs: countArgs,
		Limit:     limit,
		Offset:    offset,
		Paginated: true,
	}}
}

func missingExpr(f Field, e EmpColumns, colSal, colHire, colReports string) (string, string) {
	switch f {
	case FieldEmail:
		if e.Email == "" {
			return "", "Email column not present; cannot filter for missing email."
		}
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", e.Email, e.Email), ""
	case FieldName:
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", e.Name, e.Name), ""
	case FieldSkills:
		if e.Skills == "" {
			return "1=0", ""
		}
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", e.Skills, e.Skills), ""
	case FieldDepartment:
		if e.DeptFK == "" {
			return "1=0", ""
		}
		return fmt.Sprintf("(e.%s IS NULL)", e.DeptFK), ""
	case FieldPosition:
		if e.Position == "" {
			return "1=0", ""
		}
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", e.Position, e.Position), ""
	case FieldSalary:
		return fmt.Sprintf("(e.%s IS NULL)", colSal), ""
	case FieldHireDate:
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", colHire, colHire), ""
	case FieldReportsTo:
		return fmt.Sprintf("(e.%s IS NULL OR e.%s = '')", colReports, colReports), ""
	}
	return "1=1", ""
}

func clampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
