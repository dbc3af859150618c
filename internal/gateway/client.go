// Package gateway wraps authenticated calls to the hosted table API and its
// auth endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/TOTORON9625/DevTodo/internal/credential"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/offline"
	"github.com/TOTORON9625/DevTodo/internal/query"
)

// ownerField is the ownership column injected into every inserted row.
const ownerField = "user_id"

// Requester issues a single table call. Repositories and the report
// aggregator depend on this rather than on *Client.
type Requester interface {
	// Request calls method on table with an optional JSON body and filter
	// query. GET, POST and PATCH return the response rows; DELETE returns
	// nil on success.
	Request(
		ctx context.Context,
		table string,
		method string,
		body any,
		q *query.Query,
	) (json.RawMessage, error)
}

// Client talks to the table API (/rest/v1) and the auth endpoint
// (/auth/v1) of one project. It holds the current session.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	sessions   credential.SessionStore

	mu      sync.RWMutex
	session *model.Session
}

// NewClient creates a client for the project at cfg.URL. A nil httpClient
// uses a plain http.Client with no timeout; a nil sessions store keeps the
// session in memory only.
func NewClient(
	cfg model.SupabaseConfig,
	httpClient *http.Client,
	sessions credential.SessionStore,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sessions == nil {
		sessions = &credential.MemoryStore{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: httpClient,
		sessions:   sessions,
	}
}

// Request implements Requester.
func (c *Client) Request(
	ctx context.Context,
	table string,
	method string,
	body any,
	q *query.Query,
) (json.RawMessage, error) {
	session := c.Session()
	if !session.Valid() {
		return nil, &AuthRequiredError{Table: table}
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("building query for %s: %w", table, err)
	}

	url := c.baseURL + "/rest/v1/" + table + q.String()

	var bodyReader io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPatch) {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		if method == http.MethodPost {
			data, err = injectOwner(data, session.User.ID)
			if err != nil {
				return nil, fmt.Errorf("preparing insert into %s: %w", table, err)
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, table, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response body: %w", readErr)
	}

	if offline.IsOfflineResponse(resp) {
		return nil, &OfflineError{Method: method, URL: url}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Method: method,
			Table:  table,
			Status: resp.StatusCode,
			Body:   string(respBody),
		}
	}

	if method == http.MethodDelete {
		return nil, nil
	}

	// No content to parse (e.g. 204).
	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("[]"), nil
	}

	return json.RawMessage(respBody), nil
}

// injectOwner sets the ownership field on a JSON object or on every object
// of a JSON array.
func injectOwner(data []byte, userID string) ([]byte, error) {
	owner, _ := json.Marshal(userID)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("insert body must be an object or array of objects: %w", err)
		}
		for _, row := range rows {
			row[ownerField] = owner
		}
		return json.Marshal(rows)
	}

	var row map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &row); err != nil || row == nil {
		return nil, fmt.Errorf("insert body must be an object or array of objects")
	}
	row[ownerField] = owner
	return json.Marshal(row)
}

// DecodeRows unmarshals a table response into a slice of T. A nil payload
// decodes to an empty slice.
func DecodeRows[T any](raw json.RawMessage) ([]T, error) {
	rows := []T{}
	if len(raw) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
