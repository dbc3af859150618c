package testutil

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// apiError is rendered as a PostgREST-style error body.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func badRequest(code, format string, args ...any) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: fmt.Sprintf(format, args...)}
}

// filter is a parsed query string.
type filter struct {
	where   []sq.Sqlizer
	orders  []string
	selects []string
	limit   uint64
}

// parseQuery translates the table filter grammar into squirrel clauses.
func parseQuery(tbl table, rawQuery string) (*filter, error) {
	f := &filter{}
	if rawQuery == "" {
		return f, nil
	}

	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		rawKey, rawVal, ok := strings.Cut(part, "=")
		if !ok {
			return nil, badRequest("PGRST100", "malformed query parameter %q", part)
		}
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, badRequest("PGRST100", "malformed query parameter %q", part)
		}
		val, err := url.PathUnescape(rawVal)
		if err != nil {
			return nil, badRequest("PGRST100", "malformed query value %q", part)
		}

		switch key {
		case "select":
			if err := f.parseSelect(tbl, val); err != nil {
				return nil, err
			}
		case "order":
			if err := f.parseOrder(tbl, val); err != nil {
				return nil, err
			}
		case "or":
			cond, err := parseOr(tbl, val)
			if err != nil {
				return nil, err
			}
			f.where = append(f.where, cond)
		case "limit":
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, badRequest("PGRST100", "invalid limit %q", val)
			}
			f.limit = n
		default:
			op, operand, ok := strings.Cut(val, ".")
			if !ok {
				return nil, badRequest("PGRST100", "failed to parse filter (%s=%s)", key, val)
			}
			cond, err := condition(tbl, key, op, operand)
			if err != nil {
				return nil, err
			}
			f.where = append(f.where, cond)
		}
	}

	return f, nil
}

func (f *filter) parseSelect(tbl table, val string) error {
	if val == "*" || val == "" {
		return nil
	}
	for _, name := range strings.Split(val, ",") {
		if _, ok := tbl.column(name); !ok {
			return unknownColumn(name)
		}
		f.selects = append(f.selects, name)
	}
	return nil
}

func (f *filter) parseOrder(tbl table, val string) error {
	for _, term := range strings.Split(val, ",") {
		parts := strings.Split(term, ".")
		if _, ok := tbl.column(parts[0]); !ok {
			return unknownColumn(parts[0])
		}
		dir := "ASC"
		if len(parts) > 1 {
			switch parts[1] {
			case "asc":
			case "desc":
				dir = "DESC"
			default:
				return badRequest("PGRST100", "invalid order direction %q", parts[1])
			}
		}
		f.orders = append(f.orders, parts[0]+" "+dir)
	}
	return nil
}

// parseOr handles or=(col.op.value,...).
func parseOr(tbl table, val string) (sq.Sqlizer, error) {
	inner, ok := parenthesized(val)
	if !ok {
		return nil, badRequest("PGRST100", "or filter must be parenthesized: %q", val)
	}
	items, err := splitTopLevel(inner)
	if err != nil {
		return nil, err
	}

	var or sq.Or
	for _, item := range items {
		parts := strings.SplitN(item, ".", 3)
		if len(parts) != 3 {
			return nil, badRequest("PGRST100", "failed to parse logic tree item %q", item)
		}
		operand := parts[2]
		if parts[1] != "in" {
			operand = unquote(operand)
		}
		cond, err := condition(tbl, parts[0], parts[1], operand)
		if err != nil {
			return nil, err
		}
		or = append(or, cond)
	}
	return or, nil
}

// condition builds a single column comparison. The column name is checked
// against the table before it is interpolated.
func condition(tbl table, name, op, operand string) (sq.Sqlizer, error) {
	col, ok := tbl.column(name)
	if !ok {
		return nil, unknownColumn(name)
	}

	if op == "in" {
		inner, ok := parenthesized(operand)
		if !ok {
			return nil, badRequest("PGRST100", "in filter must be parenthesized: %q", operand)
		}
		items, err := splitTopLevel(inner)
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(items))
		for _, item := range items {
			v, err := convertOperand(col, unquote(item))
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return sq.Eq{name: values}, nil
	}

	if op == "is" {
		switch operand {
		case "null":
			return sq.Eq{name: nil}, nil
		case "true":
			return sq.Eq{name: 1}, nil
		case "false":
			return sq.Eq{name: 0}, nil
		}
		return nil, badRequest("PGRST100", "invalid is operand %q", operand)
	}

	if op == "like" || op == "ilike" {
		// SQLite LIKE is case-insensitive for ASCII already.
		return sq.Like{name: strings.ReplaceAll(operand, "*", "%")}, nil
	}

	v, err := convertOperand(col, operand)
	if err != nil {
		return nil, err
	}

	switch op {
	case "eq":
		return sq.Eq{name: v}, nil
	case "neq":
		return sq.NotEq{name: v}, nil
	case "gt":
		return sq.Gt{name: v}, nil
	case "gte":
		return sq.GtOrEq{name: v}, nil
	case "lt":
		return sq.Lt{name: v}, nil
	case "lte":
		return sq.LtOrEq{name: v}, nil
	}
	return nil, badRequest("PGRST100", "unknown operator %q", op)
}

// convertOperand parses a filter operand according to the column kind.
func convertOperand(col column, s string) (any, error) {
	switch col.kind {
	case kindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, badRequest("22P02", "invalid input syntax for type integer: %q", s)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, badRequest("22P02", "invalid input syntax for type boolean: %q", s)
		}
		return boolInt(b), nil
	case kindTime:
		return normalizeTime(s)
	case kindDate:
		return normalizeDate(s)
	}
	return s, nil
}

// normalizeTime renders any accepted timestamp as fixed-width UTC.
func normalizeTime(s string) (string, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", model.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(timeLayout), nil
		}
	}
	return "", badRequest("22007", "invalid input syntax for type timestamp: %q", s)
}

func normalizeDate(s string) (string, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return "", badRequest("22007", "invalid input syntax for type date: %q", s)
	}
	return d.String(), nil
}

// splitTopLevel splits on commas outside parentheses and double quotes.
func splitTopLevel(s string) ([]string, error) {
	var (
		items   []string
		current strings.Builder
		depth   int
		quoted  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\' && i+1 < len(s):
			current.WriteByte(c)
			i++
			current.WriteByte(s[i])
			continue
		case c == '"':
			quoted = !quoted
		case !quoted && c == '(':
			depth++
		case !quoted && c == ')':
			depth--
		case !quoted && depth == 0 && c == ',':
			items = append(items, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	if quoted || depth != 0 {
		return nil, badRequest("PGRST100", "unbalanced list %q", s)
	}
	if current.Len() > 0 || len(items) > 0 {
		items = append(items, current.String())
	}
	return items, nil
}

// unquote strips surrounding double quotes and backslash escapes.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func parenthesized(s string) (string, bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func unknownColumn(name string) *apiError {
	return badRequest("42703", "column %q does not exist", name)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
