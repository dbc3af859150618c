// Package query builds filter strings for the hosted table API.
//
// The grammar is column=operator.value fragments joined by &, with order=,
// select= and or=(...) parameters. Values are escaped so they cannot break
// out of their fragment.
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a comparison operator understood by the table API.
type Op string

// Supported operators.
const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpIn    Op = "in"
	OpILike Op = "ilike"
	OpIs    Op = "is"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Condition is a single column comparison.
type Condition struct {
	Field  string
	Op     Op
	Value  string
	Values []string // used by OpIn
}

// OrderBy is one component of the order= parameter.
type OrderBy struct {
	Field     string
	Direction Direction
}

// param is a serialized key/value pair in insertion order.
type param struct {
	key   string
	value string
}

// Query accumulates filters, ordering and projection. The zero value is an
// empty query; methods return the receiver for chaining.
type Query struct {
	params  []param
	orders  []OrderBy
	orderAt int // 1-based index in params of the order= slot, 0 if unset
	selects []string
	err     error
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// Where adds field=op.value.
func (q *Query) Where(field string, op Op, value string) *Query {
	if op == OpIn {
		return q.In(field, value)
	}
	if !q.checkField(field) {
		return q
	}
	q.params = append(q.params, param{key: field, value: string(op) + "." + escapeValue(value)})
	return q
}

// Eq adds field=eq.value.
func (q *Query) Eq(field, value string) *Query { return q.Where(field, OpEq, value) }

// Gte adds field=gte.value.
func (q *Query) Gte(field, value string) *Query { return q.Where(field, OpGte, value) }

// Lte adds field=lte.value.
func (q *Query) Lte(field, value string) *Query { return q.Where(field, OpLte, value) }

// IsNull adds field=is.null.
func (q *Query) IsNull(field string) *Query { return q.Where(field, OpIs, "null") }

// In adds field=in.(v1,v2,...).
func (q *Query) In(field string, values ...string) *Query {
	if !q.checkField(field) {
		return q
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteListValue(v)
	}
	q.params = append(q.params, param{
		key:   field,
		value: string(OpIn) + ".(" + strings.Join(quoted, ",") + ")",
	})
	return q
}

// Search adds or=(f1.ilike.*term*,f2.ilike.*term*). An empty term is a no-op.
func (q *Query) Search(term string, fields ...string) *Query {
	if term == "" || len(fields) == 0 {
		return q
	}
	exprs := make([]string, 0, len(fields))
	for _, f := range fields {
		if !q.checkField(f) {
			return q
		}
		exprs = append(exprs, f+"."+string(OpILike)+"."+quoteListValue("*"+term+"*"))
	}
	return q.Or(exprs...)
}

// Or adds or=(expr1,expr2,...). Expressions are emitted as given, so
// callers should build them with Search or Condition.String.
func (q *Query) Or(exprs ...string) *Query {
	if len(exprs) == 0 {
		return q
	}
	q.params = append(q.params, param{key: "or", value: "(" + strings.Join(exprs, ",") + ")"})
	return q
}

// Order appends a sort key. All keys are emitted as one order= parameter
// at the position of the first call.
func (q *Query) Order(field string, dir Direction) *Query {
	if !q.checkField(field) {
		return q
	}
	if dir != Asc && dir != Desc {
		q.setErr(fmt.Errorf("invalid sort direction %q", dir))
		return q
	}
	if q.orderAt == 0 {
		q.params = append(q.params, param{key: "order"})
		q.orderAt = len(q.params)
	}
	q.orders = append(q.orders, OrderBy{Field: field, Direction: dir})
	return q
}

// Select restricts the projected columns.
func (q *Query) Select(cols ...string) *Query {
	for _, c := range cols {
		if !q.checkField(c) {
			return q
		}
	}
	q.selects = append(q.selects, cols...)
	return q
}

// Err returns the first construction error, if any.
func (q *Query) Err() error {
	if q == nil {
		return nil
	}
	return q.err
}

// String serializes the query, including the leading "?". An empty query
// serializes to "". Invalid queries serialize to "" as well; check Err.
func (q *Query) String() string {
	if q == nil || q.err != nil {
		return ""
	}
	parts := make([]string, 0, len(q.params)+1)
	for i, p := range q.params {
		if i+1 == q.orderAt {
			keys := make([]string, len(q.orders))
			for j, o := range q.orders {
				keys[j] = o.Field + "." + string(o.Direction)
			}
			parts = append(parts, "order="+strings.Join(keys, ","))
			continue
		}
		parts = append(parts, p.key+"="+p.value)
	}
	if len(q.selects) > 0 {
		parts = append(parts, "select="+strings.Join(q.selects, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// String renders a condition as field.op.value for use inside Or.
func (c Condition) String() string {
	if c.Op == OpIn {
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			quoted[i] = quoteListValue(v)
		}
		return c.Field + ".in.(" + strings.Join(quoted, ",") + ")"
	}
	return c.Field + "." + string(c.Op) + "." + quoteListValue(c.Value)
}

func (q *Query) checkField(field string) bool {
	if fieldPattern.MatchString(field) {
		return true
	}
	q.setErr(fmt.Errorf("invalid field name %q", field))
	return false
}

func (q *Query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// escapeValue percent-encodes the characters that would end or corrupt a
// query fragment. Grammar characters such as . , ( ) * : stay readable.
func escapeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '&', c == '#', c == '?', c == '=', c == '+', c == '%',
			c <= ' ', c >= 0x7f:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// quoteListValue escapes a value inside in.(...) or or=(...) and wraps it
// in double quotes when it contains list delimiters.
func quoteListValue(v string) string {
	if strings.ContainsAny(v, `,().:"\`) {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		v = `"` + v + `"`
	}
	return escapeValue(v)
}
