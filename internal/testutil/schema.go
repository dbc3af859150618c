package testutil

// kind is how a column's values are parsed from requests and rendered in
// responses.
type kind int

const (
	kindText kind = iota
	kindInt
	kindBool
	kindTime
	kindDate
)

// column describes one exposed table column.
type column struct {
	name string
	kind kind
}

// table describes one exposed table.
type table struct {
	columns []column
	hasID   bool
	owned   bool // rows are scoped to the caller's user_id
	stamps  []string
	updated bool // updated_at is refreshed on PATCH
}

func (t table) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// tables is the API surface of the fixture store.
var tables = map[string]table{
	"projects": {
		columns: []column{
			{"id", kindText}, {"user_id", kindText}, {"name", kindText},
			{"description", kindText}, {"color", kindText},
			{"created_at", kindTime}, {"updated_at", kindTime},
		},
		hasID: true, owned: true,
		stamps: []string{"created_at", "updated_at"}, updated: true,
	},
	"tags": {
		columns: []column{
			{"id", kindText}, {"user_id", kindText}, {"name", kindText},
			{"color", kindText}, {"created_at", kindTime},
		},
		hasID: true, owned: true,
		stamps: []string{"created_at"},
	},
	"tasks": {
		columns: []column{
			{"id", kindText}, {"user_id", kindText}, {"title", kindText},
			{"description", kindText}, {"project_id", kindText},
			{"due_date", kindDate}, {"status", kindText},
			{"priority", kindInt}, {"color", kindText},
			{"completed_at", kindTime},
			{"created_at", kindTime}, {"updated_at", kindTime},
		},
		hasID: true, owned: true,
		stamps: []string{"created_at", "updated_at"}, updated: true,
	},
	"task_tags": {
		columns: []column{
			{"task_id", kindText}, {"tag_id", kindText},
			{"user_id", kindText}, {"created_at", kindTime},
		},
		owned:  true,
		stamps: []string{"created_at"},
	},
	"ideas": {
		columns: []column{
			{"id", kindText}, {"user_id", kindText}, {"title", kindText},
			{"content", kindText}, {"color", kindText},
			{"is_pinned", kindBool},
			{"created_at", kindTime}, {"updated_at", kindTime},
		},
		hasID: true, owned: true,
		stamps: []string{"created_at", "updated_at"}, updated: true,
	},
}

// schema mirrors the hosted store: deleting a project nulls tasks.project_id,
// deleting a task or tag removes its join rows.
const schema = `
CREATE TABLE users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	confirmed     INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);

CREATE TABLE projects (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '#6750A4',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE tags (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '#6750A4',
	created_at TEXT NOT NULL
);

CREATE TABLE tasks (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	project_id   TEXT REFERENCES projects(id) ON DELETE SET NULL,
	due_date     TEXT,
	status       TEXT NOT NULL DEFAULT 'todo'
		CHECK (status IN ('todo', 'in_progress', 'done', 'archived')),
	priority     INTEGER NOT NULL DEFAULT 0,
	color        TEXT NOT NULL DEFAULT '#6750A4',
	completed_at TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE task_tags (
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (task_id, tag_id)
);

CREATE TABLE ideas (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '#6750A4',
	is_pinned  INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
