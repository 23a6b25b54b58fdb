package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Schema is the introspection result returned by /api/connect-database.
// Columns are rendered as "name:TYPE" strings, relationships come from
// foreign keys.
type Schema struct {
	Tables        []string            `json:"tables"`
	Columns       map[string][]string `json:"columns"`
	Relationships []Relationship      `json:"relationships"`
}

type Relationship struct {
	FromTable   string   `json:"from_table"`
	FromColumns []string `json:"from_columns"`
	ToTable     string   `json:"to_table"`
	ToColumns   []string `json:"to_columns"`
	Name        string   `json:"name"`
}

// Column is a single introspected column.
type Column struct {
	Name string
	Type string
}

// Analyze reflects the full database structure over an open connection.
func Analyze(ctx context.Context, db *sql.DB, d Dialect) (*Schema, error) {
	tables, err := TableNames(ctx, db, d)
	if err != nil {
		return nil, err
	}
	sort.Strings(tables)

	out := &Schema{
		Tables:        tables,
		Columns:       make(map[string][]string, len(tables)),
		Relationships: []Relationship{},
	}

	for _, table := range tables {
		cols, err := TableColumns(ctx, db, d, table)
		if err != nil {
			return nil, err
		}
		rendered := make([]string, len(cols))
		for i, c := range cols {
			rendered[i] = c.Name + ":" + c.Type
		}
		out.Columns[table] = rendered

		rels, err := foreignKeys(ctx, db, d, table)
		if err != nil {
			return nil, err
		}
		out.Relationships = append(out.Relationships, rels...)
	}
	return out, nil
}

// TableNames lists user tables for the dialect.
func TableNames(ctx context.Context, db *sql.DB, d Dialect) ([]string, error) {
	var query string
	switch d {
	case DialectMySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'"
	case DialectPostgres:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'"
	default:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables failed: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name failed: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableColumns lists the columns of one table in declaration order.
func TableColumns(ctx context.Context, db *sql.DB, d Dialect, table string) ([]Column, error) {
	switch d {
	case DialectMySQL:
		return queryColumns(ctx, db,
			"SELECT column_name, column_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
			table)
	case DialectPostgres:
		return queryColumns(ctx, db,
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position",
			table)
	default:
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return nil, fmt.Errorf("table_info %s failed: %w", table, err)
		}
		defer rows.Close()

		var cols []Column
		for rows.Next() {
			var (
				cid       int
				name, typ string
				notNull   int
				dflt      sql.NullString
				pk        int
			)
			if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
				return nil, fmt.Errorf("scan table_info failed: %w", err)
			}
			cols = append(cols, Column{Name: name, Type: typ})
		}
		return cols, rows.Err()
	}
}

func queryColumns(ctx context.Context, db *sql.DB, query, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s failed: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column failed: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func foreignKeys(ctx context.Context, db *sql.DB, d Dialect, table string) ([]Relationship, error) {
	switch d {
	case DialectMySQL:
		return groupedForeignKeys(ctx, db,
			"SELECT constraint_name, column_name, referenced_table_name, referenced_column_name "+
				"FROM information_schema.key_column_usage "+
				"WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL "+
				"ORDER BY constraint_name, ordinal_position",
			table)
	case DialectPostgres:
		return groupedForeignKeys(ctx, db,
			"SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name "+
				"FROM information_schema.table_constraints tc "+
				"JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema "+
				"JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema "+
				"WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public' AND tc.table_name = $1 "+
				"ORDER BY tc.constraint_name, kcu.ordinal_position",
			table)
	default:
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
		if err != nil {
			return nil, fmt.Errorf("foreign_key_list %s failed: %w", table, err)
		}
		defer rows.Close()

		// One relationship per FK id; multi-column keys share an id.
		byID := map[int]*Relationship{}
		var order []int
		for rows.Next() {
			var (
				id, seq            int
				toTable, from, to  string
				onUpd, onDel, mtch string
			)
			if err := rows.Scan(&id, &seq, &toTable, &from, &to, &onUpd, &onDel, &mtch); err != nil {
				return nil, fmt.Errorf("scan foreign_key_list failed: %w", err)
			}
			rel, ok := byID[id]
			if !ok {
				rel = &Relationship{FromTable: table, ToTable: toTable}
				byID[id] = rel
				order = append(order, id)
			}
			rel.FromColumns = append(rel.FromColumns, from)
			rel.ToColumns = append(rel.ToColumns, to)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		rels := make([]Relationship, 0, len(order))
		for _, id := range order {
			rels = append(rels, *byID[id])
		}
		return rels, nil
	}
}

func groupedForeignKeys(ctx context.Context, db *sql.DB, query, table string) ([]Relationship, error) {
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys for %s failed: %w", table, err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var name, fromCol, toTable, toCol string
		if err := rows.Scan(&name, &fromCol, &toTable, &toCol); err != nil {
			return nil, fmt.Errorf("scan foreign key failed: %w", err)
		}
		if n := len(rels); n > 0 && rels[n-1].Name == name && rels[n-1].ToTable == toTable {
			rels[n-1].FromColumns = append(rels[n-1].FromColumns, fromCol)
			rels[n-1].ToColumns = append(rels[n-1].ToColumns, toCol)
			continue
		}
		rels = append(rels, Relationship{
			FromTable:   table,
			FromColumns: []string{fromCol},
			ToTable:     toTable,
			ToColumns:   []string{toCol},
			Name:        name,
		})
	}
	return rels, rows.Err()
}
