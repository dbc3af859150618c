// Package testutil provides fixtures shared by package tests: an in-process
// emulation of the hosted table API and an in-memory offline cache.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// AnonKey is the apikey the fixture store accepts.
const AnonKey = "test-anon-key"

// RecordedRequest is one request observed by the fixture store.
type RecordedRequest struct {
	Method   string
	Path     string
	Table    string
	RawQuery string
	Body     string
}

type fault struct {
	method string
	table  string
	status int
}

// Store emulates the hosted table API and auth endpoint on an
// httptest.Server backed by SQLite. Rows are scoped to the user_id carried
// in the caller's JWT.
type Store struct {
	URL     string
	AnonKey string

	// RequireConfirmation makes sign-up answer with a bare user and no
	// session; the account cannot sign in until Confirm is called.
	RequireConfirmation bool

	server *httptest.Server
	db     *sqlx.DB
	secret []byte

	mu       sync.Mutex
	requests []RecordedRequest
	faults   []fault
	revoked  map[string]bool
	now      func() time.Time
}

// NewStore starts a fixture store. It is shut down when the test completes.
func NewStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening fixture db: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("creating fixture schema: %v", err)
	}

	s := &Store{
		AnonKey: AnonKey,
		db:      db,
		secret:  []byte("fixture-secret-" + uuid.NewString()),
		revoked: map[string]bool{},
		now:     time.Now,
	}
	s.server = httptest.NewServer(s)
	s.URL = s.server.URL

	t.Cleanup(func() {
		s.server.Close()
		if err := db.Close(); err != nil {
			t.Errorf("closing fixture db: %v", err)
		}
	})

	return s
}

// Config returns connection settings pointing at the store.
func (s *Store) Config() model.SupabaseConfig {
	return model.SupabaseConfig{URL: s.URL, AnonKey: s.AnonKey}
}

// Close shuts the server down early, e.g. to simulate a lost network.
func (s *Store) Close() {
	s.server.Close()
}

// SetNow overrides the clock used for created_at/updated_at defaults.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next request matching method and table answer with
// status. Auth calls use "signup", "token" or "logout" as the table.
func (s *Store) FailNext(method, table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, table: table, status: status})
}

// Requests returns every request observed so far.
func (s *Store) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Writes returns the observed table requests that were not GETs.
func (s *Store) Writes() []RecordedRequest {
	var writes []RecordedRequest
	for _, r := range s.Requests() {
		if r.Table != "" && r.Method != http.MethodGet {
			writes = append(writes, r)
		}
	}
	return writes
}

// ResetRequests clears the request log.
func (s *Store) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// CreateUser registers a confirmed account and returns a signed-in session
// for it.
func (s *Store) CreateUser(t *testing.T, email, password string) *model.Session {
	t.Helper()

	user, err := s.createUser(email, password, true)
	if err != nil {
		t.Fatalf("creating fixture user %s: %v", email, err)
	}
	session, err := s.issueSession(user)
	if err != nil {
		t.Fatalf("issuing fixture session: %v", err)
	}
	return session
}

// Confirm marks an account as confirmed.
func (s *Store) Confirm(email string) error {
	res, err := s.db.Exec("UPDATE users SET confirmed = 1 WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("confirming %s: %w", email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("confirming %s: no such user", email)
	}
	return nil
}

// Seed inserts a row for userID directly, bypassing HTTP and the request
// log. Missing ids and timestamps are filled in as for API inserts.
func (s *Store) Seed(t *testing.T, userID, name string, row map[string]any) map[string]any {
	t.Helper()

	tbl, ok := tables[name]
	if !ok {
		t.Fatalf("seeding unknown table %q", name)
	}
	out, err := s.insert(context.Background(), name, tbl, userID, []map[string]any{row})
	if err != nil {
		t.Fatalf("seeding %s: %v", name, err)
	}
	return out[0]
}

// Rows returns every row of a table across all users, ordered by insertion.
func (s *Store) Rows(t *testing.T, name string) []map[string]any {
	t.Helper()

	tbl, ok := tables[name]
	if !ok {
		t.Fatalf("reading unknown table %q", name)
	}
	rows, err := s.query(context.Background(), s.db, tbl,
		sq.Select(tbl.columnNames()...).From(name).OrderBy("rowid"))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return rows
}

// ServeHTTP implements http.Handler.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, badRequest("PGRST102", "reading body: %v", err))
		return
	}

	tableName := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if tableName == r.URL.Path {
		tableName = ""
	}
	s.record(RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		Table:    tableName,
		RawQuery: r.URL.RawQuery,
		Body:     string(body),
	})

	faultKey := tableName
	if faultKey == "" {
		faultKey = strings.TrimPrefix(r.URL.Path, "/auth/v1/")
	}
	if status, ok := s.takeFault(r.Method, faultKey); ok {
		writeError(w, &apiError{Status: status, Code: "FIXTURE", Message: "injected failure"})
		return
	}

	if r.Header.Get("apikey") != s.AnonKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
		return
	}

	switch {
	case tableName != "":
		s.serveTable(w, r, tableName, body)
	case r.URL.Path == "/auth/v1/signup" && r.Method == http.MethodPost:
		s.serveSignUp(w, body)
	case r.URL.Path == "/auth/v1/token" && r.Method == http.MethodPost:
		s.serveToken(w, r, body)
	case r.URL.Path == "/auth/v1/logout" && r.Method == http.MethodPost:
		s.serveLogout(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (s *Store) record(r RecordedRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
}

func (s *Store) takeFault(method, table string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.method == method && f.table == table {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f.status, true
		}
	}
	return 0, false
}

func (s *Store) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Store) serveTable(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	tbl, ok := tables[name]
	if !ok {
		writeError(w, &apiError{
			Status:  http.StatusNotFound,
			Code:    "42P01",
			Message: fmt.Sprintf("relation \"public.%s\" does not exist", name),
		})
		return
	}

	userID, apiErr := s.authenticate(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	f, err := parseQuery(tbl, r.URL.RawQuery)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	representation := strings.Contains(r.Header.Get("Prefer"), "return=representation")

	switch r.Method {
	case http.MethodGet:
		rows, err := s.selectRows(ctx, name, tbl, userID, f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)

	case http.MethodPost:
		rows, err := decodeRows(body)
		if err != nil {
			writeError(w, err)
			return
		}
		out, err := s.insert(ctx, name, tbl, userID, rows)
		if err != nil {
			writeError(w, err)
			return
		}
		if !representation {
			w.WriteHeader(http.StatusCreated)
			return
		}
		writeJSON(w, http.StatusCreated, out)

	case http.MethodPatch:
		var patch map[string]any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&patch); err != nil || patch == nil {
			writeError(w, badRequest("PGRST102", "patch body must be a JSON object"))
			return
		}
		out, err := s.update(ctx, name, tbl, userID, f, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		if !representation {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodDelete:
		if err := s.delete(ctx, name, tbl, userID, f); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, &apiError{Status: http.StatusMethodNotAllowed, Code: "PGRST117", Message: "unsupported method"})
	}
}

// authenticate validates the bearer token and returns its subject.
func (s *Store) authenticate(r *http.Request) (string, *apiError) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", &apiError{Status: http.StatusUnauthorized, Code: "PGRST301", Message: "missing bearer token"}
	}

	s.mu.Lock()
	revoked := s.revoked[token]
	s.mu.Unlock()
	if revoked {
		return "", &apiError{Status: http.StatusUnauthorized, Code: "PGRST301", Message: "JWT revoked"}
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || claims.Subject == "" {
		return "", &apiError{Status: http.StatusUnauthorized, Code: "PGRST301", Message: "JWT invalid"}
	}
	return claims.Subject, nil
}

func (s *Store) selectRows(ctx context.Context, name string, tbl table, userID string, f *filter) ([]map[string]any, error) {
	cols := f.selects
	if len(cols) == 0 {
		cols = tbl.columnNames()
	}

	b := sq.Select(cols...).From(name)
	if tbl.owned {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	for _, w := range f.where {
		b = b.Where(w)
	}
	b = b.OrderBy(append(append([]string(nil), f.orders...), "rowid")...)
	if f.limit > 0 {
		b = b.Limit(f.limit)
	}

	return s.query(ctx, s.db, tbl, b)
}

func (s *Store) insert(ctx context.Context, name string, tbl table, userID string, rows []map[string]any) ([]map[string]any, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.clock().UTC().Format(timeLayout)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		values, err := convertRow(tbl, row)
		if err != nil {
			return nil, err
		}

		if tbl.owned {
			if owner, ok := values["user_id"]; ok && owner != userID {
				return nil, &apiError{
					Status:  http.StatusForbidden,
					Code:    "42501",
					Message: fmt.Sprintf("new row violates row-level security policy for table %q", name),
				}
			}
			values["user_id"] = userID
		}
		if _, ok := values["id"]; tbl.hasID && !ok {
			values["id"] = uuid.NewString()
		}
		for _, stamp := range tbl.stamps {
			if v, ok := values[stamp]; !ok || v == nil {
				values[stamp] = now
			}
		}

		inserted, err := s.query(ctx, tx, tbl,
			sq.Insert(name).SetMap(values).Suffix("RETURNING "+strings.Join(tbl.columnNames(), ", ")))
		if err != nil {
			return nil, err
		}
		out = append(out, inserted...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return out, nil
}

func (s *Store) update(ctx context.Context, name string, tbl table, userID string, f *filter, patch map[string]any) ([]map[string]any, error) {
	values, err := convertRow(tbl, patch)
	if err != nil {
		return nil, err
	}
	if owner, ok := values["user_id"]; ok && owner != userID {
		return nil, &apiError{Status: http.StatusForbidden, Code: "42501", Message: "cannot change row ownership"}
	}
	if _, ok := values["updated_at"]; tbl.updated && !ok {
		values["updated_at"] = s.clock().UTC().Format(timeLayout)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sel := sq.Select("rowid").From(name)
	if tbl.owned {
		sel = sel.Where(sq.Eq{"user_id": userID})
	}
	for _, w := range f.where {
		sel = sel.Where(w)
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	var rowids []int64
	if err := tx.SelectContext(ctx, &rowids, query, args...); err != nil {
		return nil, mapSQLError(err)
	}
	if len(rowids) == 0 {
		return []map[string]any{}, nil
	}

	if len(values) > 0 {
		query, args, err = sq.Update(name).SetMap(values).Where(sq.Eq{"rowid": rowids}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("building update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, mapSQLError(err)
		}
	}

	out, err := s.query(ctx, tx, tbl,
		sq.Select(tbl.columnNames()...).From(name).Where(sq.Eq{"rowid": rowids}).OrderBy("rowid"))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return out, nil
}

func (s *Store) delete(ctx context.Context, name string, tbl table, userID string, f *filter) error {
	b := sq.Delete(name)
	if tbl.owned {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	for _, w := range f.where {
		b = b.Where(w)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapSQLError(err)
	}
	return nil
}

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// query runs a squirrel builder and renders each row for the wire.
func (s *Store) query(ctx context.Context, db queryer, tbl table, b sq.Sqlizer) ([]map[string]any, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, mapSQLError(err)
		}
		out = append(out, render(tbl, m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError(err)
	}
	return out, nil
}

// render converts SQLite values to their JSON shapes.
func render(tbl table, m map[string]any) map[string]any {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			v = string(b)
			m[k] = v
		}
		col, ok := tbl.column(k)
		if !ok || v == nil {
			continue
		}
		if col.kind == kindBool {
			if n, ok := v.(int64); ok {
				m[k] = n != 0
			}
		}
	}
	return m
}

// convertRow validates and converts a request body object.
func convertRow(tbl table, row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for k, v := range row {
		col, ok := tbl.column(k)
		if !ok {
			return nil, &apiError{
				Status:  http.StatusBadRequest,
				Code:    "PGRST204",
				Message: fmt.Sprintf("Could not find the '%s' column in the schema cache", k),
			}
		}
		converted, err := convertValue(col, v)
		if err != nil {
			return nil, err
		}
		out[k] = converted
	}
	return out, nil
}

func convertValue(col column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	invalid := badRequest("22P02", "invalid value for column %q: %v", col.name, v)

	switch col.kind {
	case kindInt:
		switch n := v.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, invalid
			}
			return i, nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, invalid
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid
		}
		return boolInt(b), nil
	case kindTime, kindDate, kindText:
		str, ok := v.(string)
		if !ok {
			return nil, invalid
		}
		if col.kind == kindTime {
			return normalizeTime(str)
		}
		if col.kind == kindDate {
			return normalizeDate(str)
		}
		return str, nil
	}
	return nil, invalid
}

func decodeRows(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]any
		if err := dec.Decode(&rows); err != nil {
			return nil, badRequest("PGRST102", "invalid JSON body: %v", err)
		}
		return rows, nil
	}

	var row map[string]any
	if err := dec.Decode(&row); err != nil || row == nil {
		return nil, badRequest("PGRST102", "insert body must be an object or array")
	}
	return []map[string]any{row}, nil
}

// mapSQLError turns constraint failures into API errors.
func mapSQLError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &apiError{Status: http.StatusConflict, Code: "23505", Message: msg}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &apiError{Status: http.StatusConflict, Code: "23503", Message: msg}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return &apiError{Status: http.StatusBadRequest, Code: "23502", Message: msg}
	case strings.Contains(msg, "CHECK constraint failed"):
		return &apiError{Status: http.StatusBadRequest, Code: "23514", Message: msg}
	}
	return err
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = &apiError{Status: http.StatusInternalServerError, Code: "XX000", Message: err.Error()}
	}
	writeJSON(w, apiErr.Status, apiErr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
