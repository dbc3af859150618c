package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/credential"
	"github.com/TOTORON9625/DevTodo/internal/testutil"
)

func TestSignUpIssuesSession(t *testing.T) {
	store := testutil.NewStore(t)
	sessions := credential.NewKeyringStore(keyring.NewArrayKeyring(nil))
	c := NewClient(store.Config(), nil, sessions)

	res, err := c.SignUp(context.Background(), "new@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation)
	require.NotNil(t, res.Session)
	assert.Equal(t, "new@example.com", res.User.Email)
	assert.True(t, c.IsAuthenticated())

	persisted, err := sessions.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, res.Session.AccessToken, persisted.AccessToken)
}

func TestSignUpNeedsConfirmation(t *testing.T) {
	store := testutil.NewStore(t)
	store.RequireConfirmation = true
	sessions := &credential.MemoryStore{}
	c := NewClient(store.Config(), nil, sessions)
	ctx := context.Background()

	res, err := c.SignUp(ctx, "pending@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	assert.Nil(t, res.Session)
	require.NotNil(t, res.User)
	assert.Equal(t, "pending@example.com", res.User.Email)
	assert.False(t, c.IsAuthenticated())

	_, err = c.SignIn(ctx, "pending@example.com", "s3cret-pass")
	var failed *AuthFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "Email not confirmed", failed.Message)

	require.NoError(t, store.Confirm("pending@example.com"))
	_, err = c.SignIn(ctx, "pending@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, c.IsAuthenticated())
}

func TestSignUpServerMessages(t *testing.T) {
	store := testutil.NewStore(t)
	store.CreateUser(t, "taken@example.com", "s3cret-pass")
	c := NewClient(store.Config(), nil, nil)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		message  string
	}{
		{"duplicate", "taken@example.com", "s3cret-pass", http.StatusUnprocessableEntity, "User already registered"},
		{"weak password", "other@example.com", "123", http.StatusUnprocessableEntity, "Password should be at least 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SignUp(context.Background(), tt.email, tt.password)
			var failed *AuthFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, tt.status, failed.Status)
			assert.Equal(t, tt.message, failed.Message)
			assert.True(t, IsAuthFailed(err))
		})
	}
}

func TestSignInFailure(t *testing.T) {
	store := testutil.NewStore(t)
	store.CreateUser(t, "dev@example.com", "correct-horse")
	c := NewClient(store.Config(), nil, nil)

	_, err := c.SignIn(context.Background(), "dev@example.com", "wrong")
	var failed *AuthFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, http.StatusBadRequest, failed.Status)
	assert.Equal(t, "Invalid login credentials", failed.Message)
	assert.False(t, c.IsAuthenticated())
}

func TestSignInRequiresCredentials(t *testing.T) {
	store := testutil.NewStore(t)
	c := NewClient(store.Config(), nil, nil)

	_, err := c.SignIn(context.Background(), "", "")
	assert.True(t, IsAuthFailed(err))
	assert.Empty(t, store.Requests())
}

func TestSignInThenRequest(t *testing.T) {
	store := testutil.NewStore(t)
	store.CreateUser(t, "dev@example.com", "correct-horse")
	c := NewClient(store.Config(), nil, nil)
	ctx := context.Background()

	session, err := c.SignIn(ctx, "dev@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", c.User().Email)
	assert.Equal(t, session.User.ID, c.User().ID)

	_, err = c.Request(ctx, "tasks", http.MethodGet, nil, nil)
	assert.NoError(t, err)
}

func TestSignOutClearsSessionEvenWhenLogoutFails(t *testing.T) {
	store := testutil.NewStore(t)
	store.CreateUser(t, "dev@example.com", "correct-horse")
	sessions := &credential.MemoryStore{}
	c := NewClient(store.Config(), nil, sessions)
	ctx := context.Background()

	_, err := c.SignIn(ctx, "dev@example.com", "correct-horse")
	require.NoError(t, err)

	store.FailNext(http.MethodPost, "logout", http.StatusInternalServerError)
	require.NoError(t, c.SignOut(ctx))

	assert.False(t, c.IsAuthenticated())
	persisted, err := sessions.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)

	_, err = c.Request(ctx, "tasks", http.MethodGet, nil, nil)
	assert.True(t, IsAuthRequired(err))
}

func TestSignOutRevokesToken(t *testing.T) {
	store := testutil.NewStore(t)
	store.CreateUser(t, "dev@example.com", "correct-horse")
	c := NewClient(store.Config(), nil, nil)
	ctx := context.Background()

	session, err := c.SignIn(ctx, "dev@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(ctx))

	// A second client still holding the old token is rejected.
	stale := &credential.MemoryStore{}
	require.NoError(t, stale.Save(session))
	other := NewClient(store.Config(), nil, stale)
	_, err = other.Restore()
	require.NoError(t, err)

	_, err = other.Request(ctx, "tasks", http.MethodGet, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, RemoteStatus(err))
}

func TestRestoreWithoutSession(t *testing.T) {
	c := NewClient(testutil.NewStore(t).Config(), nil, nil)

	s, err := c.Restore()
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, c.User())
}

func TestAuthResponseMessage(t *testing.T) {
	tests := []struct {
		name string
		resp authResponse
		want string
	}{
		{"error description", authResponse{ErrorDescription: "a", Msg: "b"}, "a"},
		{"msg", authResponse{Msg: "b", Message: "d"}, "b"},
		{"nested error", authResponse{Error: []byte(`{"message":"c"}`), Message: "d"}, "c"},
		{"string error", authResponse{Error: []byte(`"invalid_grant"`)}, "invalid_grant"},
		{"message", authResponse{Message: "d"}, "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.message())
		})
	}
}
