package model

// User is the authenticated account as returned by the auth endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the credentials persisted between runs.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Valid reports whether the session carries both a token and a user.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.User != nil && s.User.ID != ""
}
