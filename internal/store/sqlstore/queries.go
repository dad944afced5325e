package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// fieldKey limits stored field names to identifiers, which is what lets
// them be rendered into SQL as literals.
var fieldKey = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// buildSelect renders q into SQL and its bind arguments.
func buildSelect(d Dialect, q store.Query) (string, []any, error) {
	var (
		args   []any
		argIdx int
	)

	nextArg := func(v any) string {
		argIdx++
		args = append(args, v)
		return d.Placeholder(argIdx)
	}

	whereClauses := []string{"collection = " + nextArg(q.Collection)}

	for _, c := range q.Conditions {
		if !c.Op.IsValid() {
			return "", nil, fmt.Errorf("unsupported operator %q on %q", c.Op, c.Field)
		}
		if c.Field == "" {
			return "", nil, fmt.Errorf("condition with empty field")
		}
		if c.Field == store.IDField {
			whereClauses = append(whereClauses, fmt.Sprintf("id %s %s", c.Op, nextArg(c.Value)))
			continue
		}
		if !fieldKey.MatchString(c.Field) {
			return "", nil, fmt.Errorf("invalid field name %q", c.Field)
		}
		field := d.FieldExpr(c.Field, isNumeric(c.Value))
		whereClauses = append(whereClauses, fmt.Sprintf("%s %s %s", field, c.Op, nextArg(c.Value)))
	}

	query := "SELECT id, version, fields FROM records WHERE " +
		strings.Join(whereClauses, " AND ") +
		" ORDER BY id, version"
	if q.ForUpdate {
		query += d.LockSuffix
	}
	return query, args, nil
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func queryRecords(ctx context.Context, db executor, d Dialect, q store.Query) ([]store.Row, error) {
	query, args, err := buildSelect(d, q)
	if err != nil {
		return nil, store.WrapIO("query", q.Collection, err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.WrapIO("query", q.Collection, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Collection, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapIO("query", q.Collection, err)
	}
	return out, nil
}

func queryWriteRecord(ctx context.Context, db executor, d Dialect, req *store.WriteRequest) error {
	fields, err := json.Marshal(req.Row.Fields)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", req.Collection, req.Row.ID, err)
	}

	p := d.Placeholder
	query := `
		INSERT INTO records (collection, id, version, fields, written_at)
		VALUES (` + p(1) + `, ` + p(2) + `, ` + p(3) + `, ` + p(4) + `, ` + d.Now + `)
		ON CONFLICT (collection, id, version)
		DO UPDATE SET fields = excluded.fields, written_at = excluded.written_at`

	_, err = db.ExecContext(ctx, query, req.Collection, req.Row.ID, req.Version, string(fields))
	return store.WrapIO("write", req.Collection, err)
}

// scanRecord scans one id, version, fields row.
func scanRecord(row scannable) (store.Row, error) {
	var (
		r      store.Row
		fields []byte
	)
	if err := row.Scan(&r.ID, &r.Version, &fields); err != nil {
		return store.Row{}, store.WrapIO("scan", "", err)
	}
	decoded, err := decodeFields(fields)
	if err != nil {
		return store.Row{}, err
	}
	r.Fields = decoded
	return r, nil
}

// decodeFields parses stored JSON keeping numbers exact.
func decodeFields(data []byte) (map[string]any, error) {
	fields := make(map[string]any)
	if len(data) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrDecode, err)
	}
	return fields, nil
}
