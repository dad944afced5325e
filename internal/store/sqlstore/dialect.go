package sqlstore

import "fmt"

// Dialect holds the SQL differences between supported databases.
type Dialect struct {
	Name string

	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string

	// FieldExpr returns an expression extracting the stored field key. key
	// is a checked identifier and is rendered as a literal, so the expression
	// matches the expression indexes in the migrations. numeric selects an
	// integer comparison.
	FieldExpr func(key string, numeric bool) string

	// LockSuffix is appended to SELECTs that lock their rows, if supported.
	LockSuffix string

	// Now is the expression for the current timestamp.
	Now string
}

// Postgres renders queries for PostgreSQL (JSONB fields).
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	FieldExpr: func(key string, numeric bool) string {
		if numeric {
			return fmt.Sprintf("(fields->>'%s')::bigint", key)
		}
		return fmt.Sprintf("fields->>'%s'", key)
	},
	LockSuffix: " FOR UPDATE",
	Now:        "NOW()",
}

// SQLite renders queries for SQLite (JSON text fields). SQLite has no row
// locks; the sqlite backend serialises transactions on one connection.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	FieldExpr: func(key string, numeric bool) string {
		expr := fmt.Sprintf(`json_extract(fields, '$."%s"')`, key)
		if numeric {
			return "CAST(" + expr + " AS INTEGER)"
		}
		return expr
	},
	Now: "CURRENT_TIMESTAMP",
}
