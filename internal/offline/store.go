package offline

import (
	"context"
	"net/http"
	"time"
)

// Entry is one cached request/response pair, keyed by cache generation and
// exact request URL.
type Entry struct {
	Cache    string
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// CacheStore is the durable storage behind the controller.
type CacheStore interface {
	// Match returns the entry stored for url in cache, or nil if none.
	Match(ctx context.Context, cache, url string) (*Entry, error)

	// Put stores e, replacing any entry for the same cache and URL.
	Put(ctx context.Context, e Entry) error

	// CacheNames lists every cache generation holding entries.
	CacheNames(ctx context.Context) ([]string, error)

	// DeleteCache removes a whole generation and reports whether it
	// existed.
	DeleteCache(ctx context.Context, cache string) (bool, error)

	// Entries lists the entries of one generation ordered by URL.
	Entries(ctx context.Context, cache string) ([]Entry, error)
}
