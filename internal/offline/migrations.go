package offline

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of cache schema migrations.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
	cache_name TEXT NOT NULL,
	url        TEXT NOT NULL,
	status     INTEGER NOT NULL,
	header     TEXT NOT NULL DEFAULT '{}',
	body       BLOB NOT NULL,
	stored_at  DATETIME NOT NULL,
	PRIMARY KEY (cache_name, url)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
