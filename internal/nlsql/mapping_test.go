package nlsql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlquery-engine/internal/schema"
)

func detect(t *testing.T, db *sql.DB) (*Mapping, map[string]bool) {
	t.Helper()
	m, tables, err := DetectMapping(context.Background(), db, schema.DialectSQLite)
	require.NoError(t, err)
	return m, tables
}

func TestDetectMappingStandard(t *testing.T) {
	db := standardEmployeeDB(t)
	m, tables := detect(t, db)

	assert.Equal(t, "employees", m.EmpTable)
	assert.Equal(t, "departments", m.DeptTable)
	assert.Equal(t, "id", m.Emp.ID)
	assert.Equal(t, "salary", m.Emp.Salary)
	assert.Equal(t, "hire_date", m.Emp.HireDate)
	require.NotNil(t, m.Dept)
	assert.Equal(t, "name", m.Dept.Name)
	assert.True(t, tables["employees"])
	assert.True(t, tables["departments"])
}

func TestDetectMappingSimplified(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE departments (dept_id INTEGER PRIMARY KEY, dept_name TEXT, manager_id INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE employees (
		emp_id INTEGER PRIMARY KEY, full_name TEXT, position TEXT,
		annual_salary REAL, join_date TEXT, dept_id INTEGER)`)
	require.NoError(t, err)

	m, _ := detect(t, db)
	assert.Equal(t, "employees", m.EmpTable)
	assert.Equal(t, "emp_id", m.Emp.ID)
	assert.Equal(t, "full_name", m.Emp.Name)
	assert.Equal(t, "annual_salary", m.Emp.Salary)
	assert.Equal(t, "join_date", m.Emp.HireDate)
	assert.Empty(t, m.Emp.Email)
	require.NotNil(t, m.Dept)
	assert.Equal(t, "dept_id", m.Dept.ID)
	assert.Equal(t, "dept_name", m.Dept.Name)
}

func TestDetectMappingStaff(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE staff (
		id INTEGER PRIMARY KEY, name TEXT, email TEXT, role TEXT,
		compensation REAL, hired_on TEXT, department TEXT, reports_to TEXT)`)
	require.NoError(t, err)

	m, _ := detect(t, db)
	assert.Equal(t, "staff", m.EmpTable)
	assert.Empty(t, m.DeptTable)
	assert.Nil(t, m.Dept)
	assert.Equal(t, "role", m.Emp.Position)
	assert.Equal(t, "compensation", m.Emp.Salary)
	assert.Equal(t, "hired_on", m.Emp.HireDate)
	assert.Equal(t, "department", m.Emp.DeptFK)
}

func TestDetectMappingPersonnel(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE divisions (division_code INTEGER PRIMARY KEY, division_name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE personnel (
		person_id INTEGER PRIMARY KEY, employee_name TEXT, title TEXT,
		pay_rate REAL, start_date TEXT, division INTEGER)`)
	require.NoError(t, err)

	m, _ := detect(t, db)
	assert.Equal(t, "personnel", m.EmpTable)
	assert.Equal(t, "divisions", m.DeptTable)
	assert.Equal(t, "person_id", m.Emp.ID)
	assert.Equal(t, "pay_rate", m.Emp.Salary)
	require.NotNil(t, m.Dept)
	assert.Equal(t, "division_name", m.Dept.Name)
}

func TestDetectMappingUnknownFallsBack(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	m, tables := detect(t, db)
	assert.Equal(t, "employees", m.EmpTable)
	assert.True(t, tables["widgets"])
	assert.False(t, tables["employees"])
}
