// Package offline implements the network-first cache that sits under every
// outbound request.
//
// Static assets are fetched live and mirrored into a named cache
// generation; when the network fails the last cached copy for the exact URL
// is served. API calls are never cached: on network failure a synthesized
// offline response is returned instead of an error.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// HeaderOffline marks a response synthesized while the network was down.
const HeaderOffline = "X-Devtodo-Offline"

// HeaderCached marks a response served from the cache.
const HeaderCached = "X-Devtodo-Cache"

// OfflinePayload is the body of a synthesized API offline response.
var OfflinePayload = []byte(`{"error":"offline","offline":true}`)

// Fetcher performs a live network request. http.RoundTripper.RoundTrip
// satisfies it as a method value.
type Fetcher func(req *http.Request) (*http.Response, error)

// Controller holds the cache policy configuration.
type Controller struct {
	CacheName   string
	Origin      string
	Assets      []string
	APIPrefixes []string
	Store       CacheStore

	active atomic.Bool
}

// NewController creates a controller for one cache generation.
func NewController(cfg model.CacheConfig, store CacheStore) *Controller {
	return &Controller{
		CacheName:   cfg.Name,
		Origin:      strings.TrimRight(cfg.Origin, "/"),
		Assets:      append([]string(nil), cfg.Assets...),
		APIPrefixes: append([]string(nil), cfg.APIPrefixes...),
		Store:       store,
	}
}

// IsAPI reports whether req targets an API path that must never be cached.
func (c *Controller) IsAPI(req *http.Request) bool {
	for _, p := range c.APIPrefixes {
		if strings.HasPrefix(req.URL.Path, p) {
			return true
		}
	}
	return false
}

// Respond answers req using network and store. It has no state of its
// own beyond the controller configuration.
//
// API requests go straight to the network; a transport failure yields a
// 503 offline response and never an error. Other requests are network-first:
// a live 200 GET response is stored, replacing any previous entry for the
// URL. A transport failure falls back to the stored entry for the exact
// URL, or returns the transport error when none exists.
func (c *Controller) Respond(req *http.Request, network Fetcher, store CacheStore) (*http.Response, error) {
	if c.IsAPI(req) {
		resp, err := network(req)
		if err != nil {
			log.Printf("offline: %s %s failed: %v", req.Method, req.URL, err)
			return offlineResponse(req), nil
		}
		return resp, nil
	}

	ctx := req.Context()
	key := req.URL.String()

	resp, err := network(req)
	if err == nil {
		if req.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
			if err := c.store(ctx, store, key, resp); err != nil {
				return nil, err
			}
		}
		return resp, nil
	}

	if req.Method != http.MethodGet {
		return nil, err
	}

	entry, matchErr := store.Match(ctx, c.CacheName, key)
	if matchErr != nil {
		log.Printf("offline: cache lookup for %s failed: %v", key, matchErr)
		return nil, err
	}
	if entry == nil {
		return nil, err
	}
	return entryResponse(req, entry), nil
}

// store buffers resp's body, saves a copy, and rewinds resp so the caller
// still receives the full body. A failed write is logged, not returned.
func (c *Controller) store(ctx context.Context, store CacheStore, key string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body for %s: %w", key, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	err = store.Put(ctx, Entry{
		Cache:    c.CacheName,
		URL:      key,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	})
	if err != nil {
		log.Printf("offline: caching %s failed: %v", key, err)
	}
	return nil
}

// Install pre-caches the asset manifest. Either every asset is stored or
// none is.
func (c *Controller) Install(ctx context.Context, network Fetcher) error {
	entries := make([]Entry, 0, len(c.Assets))
	for _, asset := range c.Assets {
		url := c.assetURL(asset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request for %s: %w", url, err)
		}

		resp, err := network(req)
		if err != nil {
			return fmt.Errorf("fetching asset %s: %w", url, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading asset %s: %w", url, readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetching asset %s: unexpected status %d", url, resp.StatusCode)
		}

		entries = append(entries, Entry{
			Cache:    c.CacheName,
			URL:      req.URL.String(),
			Status:   resp.StatusCode,
			Header:   resp.Header.Clone(),
			Body:     body,
			StoredAt: time.Now(),
		})
	}

	for _, e := range entries {
		if err := c.Store.Put(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Activate purges every cache generation other than CacheName and starts
// intercepting requests made through a Transport. It returns the purged
// generation names.
func (c *Controller) Activate(ctx context.Context) ([]string, error) {
	names, err := c.Store.CacheNames(ctx)
	if err != nil {
		return nil, err
	}

	var purged []string
	for _, name := range names {
		if name == c.CacheName {
			continue
		}
		if _, err := c.Store.DeleteCache(ctx, name); err != nil {
			return purged, err
		}
		purged = append(purged, name)
	}

	c.active.Store(true)
	return purged, nil
}

// Active reports whether Activate has completed.
func (c *Controller) Active() bool {
	return c.active.Load()
}

func (c *Controller) assetURL(asset string) string {
	if strings.HasPrefix(asset, "http://") || strings.HasPrefix(asset, "https://") {
		return asset
	}
	if !strings.HasPrefix(asset, "/") {
		asset = "/" + asset
	}
	return c.Origin + asset
}

// IsOfflineResponse reports whether resp was synthesized by a controller.
func IsOfflineResponse(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(HeaderOffline) == "1"
}

func offlineResponse(req *http.Request) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(HeaderOffline, "1")
	return newResponse(req, http.StatusServiceUnavailable, header, OfflinePayload)
}

func entryResponse(req *http.Request, e *Entry) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderCached, "hit")
	return newResponse(req, e.Status, header, e.Body)
}

func newResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
