package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryString(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		want string
	}{
		{
			name: "empty",
			q:    New(),
			want: "",
		},
		{
			name: "single equality",
			q:    New().Eq("status", "done"),
			want: "?status=eq.done",
		},
		{
			name: "task list ordering then filters",
			q: New().
				Order("priority", Desc).
				Order("created_at", Desc).
				Eq("status", "todo").
				Eq("project_id", "p1"),
			want: "?order=priority.desc,created_at.desc&status=eq.todo&project_id=eq.p1",
		},
		{
			name: "in list",
			q:    New().In("id", "a", "b", "c"),
			want: "?id=in.(a,b,c)",
		},
		{
			name: "select is emitted last",
			q:    New().Select("id", "status").Eq("project_id", "p1"),
			want: "?project_id=eq.p1&select=id,status",
		},
		{
			name: "search across fields",
			q:    New().Search("deploy", "title", "content").Order("is_pinned", Desc),
			want: "?or=(title.ilike.*deploy*,content.ilike.*deploy*)&order=is_pinned.desc",
		},
		{
			name: "empty search is a no-op",
			q:    New().Search("", "title", "content"),
			want: "",
		},
		{
			name: "window bounds",
			q: New().
				Gte("completed_at", "2026-10-12T00:00:00Z").
				Lte("completed_at", "2026-10-18T23:59:59Z"),
			want: "?completed_at=gte.2026-10-12T00:00:00Z&completed_at=lte.2026-10-18T23:59:59Z",
		},
		{
			name: "is null",
			q:    New().IsNull("project_id"),
			want: "?project_id=is.null",
		},
		{
			name: "zero value query",
			q:    (&Query{}).Order("name", Asc).Eq("id", "x"),
			want: "?order=name.asc&id=eq.x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.q.Err())
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQueryEscaping(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		want string
	}{
		{
			name: "ampersand and equals cannot start a new parameter",
			q:    New().Eq("title", "a&b=c"),
			want: "?title=eq.a%26b%3Dc",
		},
		{
			name: "plus sign in offset survives decoding",
			q:    New().Gte("created_at", "2026-10-12T00:00:00+09:00"),
			want: "?created_at=gte.2026-10-12T00:00:00%2B09:00",
		},
		{
			name: "whitespace and hash",
			q:    New().Eq("name", "a b#c"),
			want: "?name=eq.a%20b%23c",
		},
		{
			name: "list values with delimiters are quoted",
			q:    New().In("name", "plain", "a,b", "x(y)"),
			want: `?name=in.(plain,"a,b","x(y)")`,
		},
		{
			name: "search term with comma is quoted",
			q:    New().Search("a,b", "title"),
			want: `?or=(title.ilike."*a,b*")`,
		},
		{
			name: "non-ascii is percent encoded",
			q:    New().Eq("name", "仕事"),
			want: "?name=eq.%E4%BB%95%E4%BA%8B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQueryInvalidField(t *testing.T) {
	q := New().Eq("status", "done").Eq("status;drop", "x")

	require.Error(t, q.Err())
	assert.Contains(t, q.Err().Error(), "status;drop")
	assert.Empty(t, q.String())
}

func TestQueryInvalidDirection(t *testing.T) {
	q := New().Order("name", Direction("sideways"))

	require.Error(t, q.Err())
	assert.Empty(t, q.String())
}

func TestQueryFirstErrorWins(t *testing.T) {
	q := New().Select("Bad").Order("x", "nope")

	require.Error(t, q.Err())
	assert.Contains(t, q.Err().Error(), "Bad")
}

func TestNilQuery(t *testing.T) {
	var q *Query
	assert.NoError(t, q.Err())
	assert.Empty(t, q.String())
}

func TestConditionString(t *testing.T) {
	assert.Equal(t, "title.ilike.*x*", Condition{Field: "title", Op: OpILike, Value: "*x*"}.String())
	assert.Equal(t, "id.in.(a,b)", Condition{Field: "id", Op: OpIn, Values: []string{"a", "b"}}.String())

	q := New().Or(
		Condition{Field: "status", Op: OpEq, Value: "todo"}.String(),
		Condition{Field: "status", Op: OpEq, Value: "in_progress"}.String(),
	)
	assert.Equal(t, "?or=(status.eq.todo,status.eq.in_progress)", q.String())
}
