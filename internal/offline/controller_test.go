package offline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

var errNetworkDown = errors.New("dial tcp: network is unreachable")

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()

	c, err := NewSQLiteCache(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing test cache: %v", err)
		}
	})

	return c
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return NewController(model.CacheConfig{
		Name:        "devtodo-v1",
		Origin:      "https://app.example.com",
		Assets:      []string{"/", "/index.html"},
		APIPrefixes: []string{"/api/", "/rest/v1/", "/auth/v1/"},
	}, newTestCache(t))
}

// staticNetwork serves fixed bodies by path, or fails when down is set.
type staticNetwork struct {
	bodies map[string]string
	down   atomic.Bool
	calls  atomic.Int32
}

func (n *staticNetwork) fetch(req *http.Request) (*http.Response, error) {
	n.calls.Add(1)
	if n.down.Load() {
		return nil, errNetworkDown
	}
	body, ok := n.bodies[req.URL.Path]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
		body = "not found"
	}
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "text/html")
	rec.WriteHeader(status)
	_, _ = rec.WriteString(body)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func get(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRespondStaticFallsBackToCachedBody(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{
		"/css/styles.css": "body { color: #6750A4; }\n\x00binary-tail",
	}}
	url := "https://app.example.com/css/styles.css"

	resp, err := c.Respond(get(t, url), network.fetch, c.Store)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	live := readBody(t, resp)
	assert.Equal(t, "body { color: #6750A4; }\n\x00binary-tail", live)
	assert.Empty(t, resp.Header.Get(HeaderCached))

	network.down.Store(true)

	resp, err = c.Respond(get(t, url), network.fetch, c.Store)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hit", resp.Header.Get(HeaderCached))
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, live, readBody(t, resp), "cached body must match byte-for-byte")
}

func TestRespondStaticReplacesStaleEntry(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{"/js/app.js": "v1"}}
	url := "https://app.example.com/js/app.js"

	resp, err := c.Respond(get(t, url), network.fetch, c.Store)
	require.NoError(t, err)
	readBody(t, resp)

	network.bodies["/js/app.js"] = "v2"
	resp, err = c.Respond(get(t, url), network.fetch, c.Store)
	require.NoError(t, err)
	assert.Equal(t, "v2", readBody(t, resp))

	entries, err := c.Store.Entries(context.Background(), "devtodo-v1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v2", string(entries[0].Body))
}

func TestRespondStaticWithoutCacheIsTerminal(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{}
	network.down.Store(true)

	resp, err := c.Respond(get(t, "https://app.example.com/missing.png"), network.fetch, c.Store)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errNetworkDown)
}

func TestRespondMatchesExactURL(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{"/index.html": "home"}}

	resp, err := c.Respond(get(t, "https://app.example.com/index.html?v=1"), network.fetch, c.Store)
	require.NoError(t, err)
	readBody(t, resp)

	network.down.Store(true)
	_, err = c.Respond(get(t, "https://app.example.com/index.html?v=2"), network.fetch, c.Store)
	assert.ErrorIs(t, err, errNetworkDown)
}

func TestRespondDoesNotCacheNon200(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{}

	resp, err := c.Respond(get(t, "https://app.example.com/nope.css"), network.fetch, c.Store)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)

	entries, err := c.Store.Entries(context.Background(), "devtodo-v1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRespondAPIOfflinePayload(t *testing.T) {
	tests := []string{
		"https://db.example.com/rest/v1/tasks?status=eq.done",
		"https://db.example.com/auth/v1/token?grant_type=password",
		"https://app.example.com/api/tasks",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			c := newTestController(t)
			network := &staticNetwork{}
			network.down.Store(true)

			resp, err := c.Respond(get(t, url), network.fetch, c.Store)
			require.NoError(t, err, "API requests never fail")
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			assert.True(t, IsOfflineResponse(resp))
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &payload))
			assert.Equal(t, true, payload["offline"])
			assert.Equal(t, "offline", payload["error"])
		})
	}
}

func TestRespondAPINeverCached(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{"/rest/v1/tasks": "[]"}}

	resp, err := c.Respond(get(t, "https://db.example.com/rest/v1/tasks"), network.fetch, c.Store)
	require.NoError(t, err)
	assert.Equal(t, "[]", readBody(t, resp))

	names, err := c.Store.CacheNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestInstallCachesManifest(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{"/": "root", "/index.html": "index"}}

	require.NoError(t, c.Install(context.Background(), network.fetch))

	entries, err := c.Store.Entries(context.Background(), "devtodo-v1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://app.example.com/", entries[0].URL)
	assert.Equal(t, "root", string(entries[0].Body))
	assert.Equal(t, "https://app.example.com/index.html", entries[1].URL)
}

func TestInstallIsAllOrNothing(t *testing.T) {
	c := newTestController(t)
	network := &staticNetwork{bodies: map[string]string{"/": "root"}}

	err := c.Install(context.Background(), network.fetch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/index.html")

	names, err := c.Store.CacheNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestActivatePurgesOtherGenerations(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	for _, name := range []string{"devtodo-v0", "devtodo-v1", "other"} {
		require.NoError(t, c.Store.Put(ctx, Entry{
			Cache:  name,
			URL:    "https://app.example.com/",
			Status: http.StatusOK,
			Body:   []byte(name),
		}))
	}

	assert.False(t, c.Active())
	purged, err := c.Activate(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"devtodo-v0", "other"}, purged)
	assert.True(t, c.Active())

	names, err := c.Store.CacheNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"devtodo-v1"}, names)
}

func TestTransportInterceptsAfterActivation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "live:"+r.URL.Path)
	}))
	defer srv.Close()

	c := newTestController(t)
	client := NewHTTPClient(c, srv.Client().Transport)

	resp, err := client.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	assert.Equal(t, "live:/index.html", readBody(t, resp))

	entries, err := c.Store.Entries(context.Background(), c.CacheName)
	require.NoError(t, err)
	assert.Empty(t, entries, "inactive controller passes requests through")

	_, err = c.Activate(context.Background())
	require.NoError(t, err)

	resp, err = client.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	assert.Equal(t, "live:/index.html", readBody(t, resp))

	srv.Close()

	resp, err = client.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	assert.Equal(t, "live:/index.html", readBody(t, resp))

	resp, err = client.Get(srv.URL + "/rest/v1/tasks")
	require.NoError(t, err)
	assert.True(t, IsOfflineResponse(resp))
	assert.True(t, strings.Contains(readBody(t, resp), `"offline":true`))
}
