package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// bindArgs collects bind values and hands out postgres placeholders in order.
type bindArgs struct {
	values []any
}

func (a *bindArgs) bind(value any) string {
	a.values = append(a.values, value)
	return "$" + strconv.Itoa(len(a.values))
}

// expand replaces each ? in expr with the next placeholder.
func (a *bindArgs) expand(expr string, values []any) (string, error) {
	if want := strings.Count(expr, "?"); want != len(values) {
		return "", fmt.Errorf("expression %q expects %d args, got %d", expr, want, len(values))
	}
	if len(values) == 0 {
		return expr, nil
	}

	var out strings.Builder
	next := 0
	for _, r := range expr {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		out.WriteString(a.bind(values[next]))
		next++
	}
	return out.String(), nil
}

type Condition interface {
	render(a *bindArgs) (string, error)
}

type comparison struct {
	column string
	op     string
	value  any
}

func (c comparison) render(a *bindArgs) (string, error) {
	return c.column + " " + c.op + " " + a.bind(c.value), nil
}

func Eq(column string, value any) Condition {
	return comparison{column: column, op: "=", value: value}
}

// Gte renders column >= value.
func Gte(column string, value any) Condition {
	return comparison{column: column, op: ">=", value: value}
}

// Lte renders column <= value.
func Lte(column string, value any) Condition {
	return comparison{column: column, op: "<=", value: value}
}

type expression struct {
	sql  string
	args []any
}

func (e expression) render(a *bindArgs) (string, error) {
	return a.expand(e.sql, e.args)
}

// Expr is a raw predicate; each ? becomes a bind parameter.
func Expr(sql string, args ...any) Condition {
	return expression{sql: sql, args: args}
}

func writeWhere(buf *strings.Builder, conditions []Condition, a *bindArgs) error {
	for i, c := range conditions {
		part, err := c.render(a)
		if err != nil {
			return err
		}
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(part)
	}
	return nil
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	var a bindArgs
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	if err := writeWhere(&buf, b.where, &a); err != nil {
		return "", nil, err
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return buf.String(), a.values, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
	err     error
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Row appends a struct as one row, reading columns from its db tags. The
// first row fixes the column list when Columns was not called.
func (b *InsertBuilder) Row(model any) *InsertBuilder {
	cols, vals, err := modelFields(model)
	if err != nil {
		b.err = err
		return b
	}
	if len(b.columns) == 0 {
		b.columns = cols
	} else if strings.Join(cols, ",") != strings.Join(b.columns, ",") {
		b.err = fmt.Errorf("row columns %v do not match %v", cols, b.columns)
		return b
	}
	b.rows = append(b.rows, vals)
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	a := bindArgs{values: make([]any, 0, len(b.rows)*len(b.columns))}
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		placeholders := make([]string, len(row))
		for j, value := range row {
			placeholders[j] = a.bind(value)
		}
		buf.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}
	return buf.String(), a.values, nil
}

type assignment struct {
	column string
	value  any
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var buf strings.Builder
	var a bindArgs
	sets := make([]string, len(b.sets))
	for i, s := range b.sets {
		sets[i] = s.column + " = " + a.bind(s.value)
	}
	fmt.Fprintf(&buf, "UPDATE %s SET %s", b.table, strings.Join(sets, ", "))
	if err := writeWhere(&buf, b.where, &a); err != nil {
		return "", nil, err
	}
	return buf.String(), a.values, nil
}
