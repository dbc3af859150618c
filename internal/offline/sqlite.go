package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements CacheStore on a local SQLite database.
type SQLiteCache struct {
	db *sqlx.DB
}

// entryRow is the database shape of an Entry.
type entryRow struct {
	CacheName string    `db:"cache_name"`
	URL       string    `db:"url"`
	Status    int       `db:"status"`
	Header    string    `db:"header"`
	Body      []byte    `db:"body"`
	StoredAt  time.Time `db:"stored_at"`
}

// NewSQLiteCache opens (or creates) the cache database at dbPath and runs
// any pending schema migrations. ":memory:" gives a private in-memory cache.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *SQLiteCache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Match implements CacheStore.
func (c *SQLiteCache) Match(ctx context.Context, cache, url string) (*Entry, error) {
	var row entryRow
	err := c.db.GetContext(ctx, &row, `
		SELECT cache_name, url, status, header, body, stored_at
		FROM cache_entries
		WHERE cache_name = ? AND url = ?`,
		cache, url,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("matching %s in cache %s: %w", url, cache, err)
	}

	e, err := row.entry()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Put implements CacheStore.
func (c *SQLiteCache) Put(ctx context.Context, e Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("marshaling header for %s: %w", e.URL, err)
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now()
	}
	body := e.Body
	if body == nil {
		body = []byte{}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (
			cache_name, url, status, header, body, stored_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Cache, e.URL, e.Status, string(header), body, e.StoredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing %s in cache %s: %w", e.URL, e.Cache, err)
	}
	return nil
}

// CacheNames implements CacheStore.
func (c *SQLiteCache) CacheNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.SelectContext(ctx, &names,
		"SELECT DISTINCT cache_name FROM cache_entries ORDER BY cache_name")
	if err != nil {
		return nil, fmt.Errorf("listing cache names: %w", err)
	}
	return names, nil
}

// DeleteCache implements CacheStore.
func (c *SQLiteCache) DeleteCache(ctx context.Context, cache string) (bool, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_name = ?", cache)
	if err != nil {
		return false, fmt.Errorf("deleting cache %s: %w", cache, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting cache %s: %w", cache, err)
	}
	return n > 0, nil
}

// Entries implements CacheStore.
func (c *SQLiteCache) Entries(ctx context.Context, cache string) ([]Entry, error) {
	var rows []entryRow
	err := c.db.SelectContext(ctx, &rows, `
		SELECT cache_name, url, status, header, body, stored_at
		FROM cache_entries
		WHERE cache_name = ?
		ORDER BY url`,
		cache,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cache %s: %w", cache, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r entryRow) entry() (Entry, error) {
	header := http.Header{}
	if err := json.Unmarshal([]byte(r.Header), &header); err != nil {
		return Entry{}, fmt.Errorf("unmarshaling header for %s: %w", r.URL, err)
	}
	if header == nil {
		header = http.Header{}
	}
	return Entry{
		Cache:    r.CacheName,
		URL:      r.URL,
		Status:   r.Status,
		Header:   header,
		Body:     r.Body,
		StoredAt: r.StoredAt,
	}, nil
}
