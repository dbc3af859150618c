package testutil

import (
	"testing"

	"github.com/TOTORON9625/DevTodo/internal/offline"
)

// NewCache creates an in-memory offline cache store. It is closed when the
// test completes.
func NewCache(t *testing.T) *offline.SQLiteCache {
	t.Helper()

	c, err := offline.NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("creating test cache: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing test cache: %v", err)
		}
	})

	return c
}
