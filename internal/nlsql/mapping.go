package nlsql

import (
	"context"
	"database/sql"

	"nlquery-engine/internal/schema"
)

// EmpColumns maps logical employee fields to physical column names. An empty
// string means the connected schema has no such column.
type EmpColumns struct {
	ID        string
	Name      string
	Email     string
	Position  string
	Salary    string
	HireDate  string
	Skills    string
	DeptFK    string
	ReportsTo string
}

type DeptColumns struct {
	ID   string
	Name string
}

// Mapping describes which naming variant the connected database uses.
// DeptTable is empty when the variant keeps the department inline on the
// employee row.
type Mapping struct {
	EmpTable  string
	DeptTable string
	Emp       EmpColumns
	Dept      *DeptColumns
}

// DetectMapping inspects the connected database and picks the naming variant:
// employees/departments (standard or simplified), staff, or
// personnel/divisions. It also returns the set of existing tables for the
// unknown-entity guard.
func DetectMapping(ctx context.Context, db *sql.DB, d schema.Dialect) (*Mapping, map[string]bool, error) {
	names, err := schema.TableNames(ctx, db, d)
	if err != nil {
		return nil, nil, err
	}
	tables := make(map[string]bool, len(names))
	for _, n := range names {
		tables[n] = true
	}

	columnsOf := func(table string) (map[string]bool, error) {
		cols, err := schema.TableColumns(ctx, db, d, table)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c.Name] = true
		}
		return set, nil
	}

	switch {
	case tables["employees"]:
		empCols, err := columnsOf("employees")
		if err != nil {
			return nil, nil, err
		}
		if empCols["emp_id"] && empCols["full_name"] && empCols["dept_id"] && empCols["join_date"] {
			m := &Mapping{
				EmpTable: "employees",
				Emp: EmpColumns{
					ID:        "emp_id",
					Name:      "full_name",
					Email:     presentOr(empCols, "email", ""),
					Position:  "position",
					Salary:    "annual_salary",
					HireDate:  "join_date",
					Skills:    presentOr(empCols, "skills", ""),
					DeptFK:    "dept_id",
					ReportsTo: presentOr(empCols, "reports_to", ""),
				},
			}
			if tables["departments"] {
				m.DeptTable = "departments"
				deptCols, err := columnsOf("departments")
				if err != nil {
					return nil, nil, err
				}
				if deptCols["dept_id"] && deptCols["dept_name"] {
					m.Dept = &DeptColumns{ID: "dept_id", Name: "dept_name"}
				}
			}
			return m, tables, nil
		}
		return standardMapping(), tables, nil

	case tables["staff"]:
		staffCols, err := columnsOf("staff")
		if err != nil {
			return nil, nil, err
		}
		return &Mapping{
			EmpTable: "staff",
			Emp: EmpColumns{
				ID:        "id",
				Name:      "name",
				Email:     presentOr(staffCols, "email", "email"),
				Position:  "role",
				Salary:    "compensation",
				HireDate:  "hired_on",
				Skills:    presentOr(staffCols, "skills", ""),
				DeptFK:    "department",
				ReportsTo: "reports_to",
			},
		}, tables, nil

	case tables["personnel"]:
		persCols, err := columnsOf("personnel")
		if err != nil {
			return nil, nil, err
		}
		m := &Mapping{
			EmpTable: "personnel",
			Emp: EmpColumns{
				ID:        "person_id",
				Name:      "employee_name",
				Email:     presentOr(persCols, "email", ""),
				Position:  "title",
				Salary:    "pay_rate",
				HireDate:  "start_date",
				Skills:    presentOr(persCols, "skills", ""),
				DeptFK:    "division",
				ReportsTo: presentOr(persCols, "reports_to", ""),
			},
		}
		if tables["divisions"] {
			m.DeptTable = "divisions"
			m.Dept = &DeptColumns{ID: "division_code", Name: "division_name"}
		}
		return m, tables, nil
	}

	return standardMapping(), tables, nil
}

// standardMapping is the employees/departments default, also the fallback
// when no known variant is detected.
func standardMapping() *Mapping {
	return &Mapping{
		EmpTable:  "employees",
		DeptTable: "departments",
		Emp: EmpColumns{
			ID:        "id",
			Name:      "name",
			Email:     "email",
			Position:  "position",
			Salary:    "salary",
			HireDate:  "hire_date",
			Skills:    "skills",
			DeptFK:    "department_id",
			ReportsTo: "reports_to",
		},
		Dept: &DeptColumns{ID: "id", Name: "name"},
	}
}

func presentOr(cols map[string]bool, name, fallback string) string {
	if cols[name] {
		return name
	}
	return fallback
}
