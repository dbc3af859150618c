package testutil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// userRow is an account in the fixture auth store.
type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Confirmed    bool   `db:"confirmed"`
	CreatedAt    string `db:"created_at"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the token payload of the auth endpoint.
type sessionResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

var errUserExists = errors.New("user already registered")

func (s *Store) createUser(email, password string, confirmed bool) (*userRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	u := &userRow{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Confirmed:    confirmed,
		CreatedAt:    time.Now().UTC().Format(timeLayout),
	}
	_, err = s.db.NamedExec(`
		INSERT INTO users (id, email, password_hash, confirmed, created_at)
		VALUES (:id, :email, :password_hash, :confirmed, :created_at)`, u)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return nil, errUserExists
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) findUser(email string) (*userRow, error) {
	var u userRow
	err := s.db.Get(&u, "SELECT * FROM users WHERE email = ?", strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// issueSession signs an HS256 access token whose subject is the user id.
func (s *Store) issueSession(u *userRow) (*model.Session, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		User:         &model.User{ID: u.ID, Email: u.Email},
	}, nil
}

func writeSession(w http.ResponseWriter, session *model.Session) {
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  session.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: session.RefreshToken,
		User:         session.User,
	})
}

func (s *Store) serveSignUp(w http.ResponseWriter, body []byte) {
	var c credentials
	if err := json.Unmarshal(body, &c); err != nil || c.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code": 400, "error_code": "validation_failed", "msg": "Signup requires a valid email",
		})
		return
	}
	if len(c.Password) < 6 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "weak_password", "msg": "Password should be at least 6 characters.",
		})
		return
	}

	u, err := s.createUser(c.Email, c.Password, !s.RequireConfirmation)
	if errors.Is(err, errUserExists) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if s.RequireConfirmation {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                   u.ID,
			"email":                u.Email,
			"confirmation_sent_at": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	session, err := s.issueSession(u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, session)
}

func (s *Store) serveToken(w http.ResponseWriter, r *http.Request, body []byte) {
	if grant := r.URL.Query().Get("grant_type"); grant != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "grant_type must be password",
		})
		return
	}

	invalid := map[string]string{
		"error":             "invalid_grant",
		"error_description": "Invalid login credentials",
	}

	var c credentials
	if err := json.Unmarshal(body, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, invalid)
		return
	}

	u, err := s.findUser(c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusBadRequest, invalid)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		writeJSON(w, http.StatusBadRequest, invalid)
		return
	}
	if !u.Confirmed {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Email not confirmed",
		})
		return
	}

	session, err := s.issueSession(u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, session)
}

func (s *Store) serveLogout(w http.ResponseWriter, r *http.Request) {
	if _, apiErr := s.authenticate(r); apiErr != nil {
		writeError(w, apiErr)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}
